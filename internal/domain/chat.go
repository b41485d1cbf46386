package domain

// User is a presence entry: one connected client and the room it
// currently occupies. Room is empty until the first join.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Room     string `json:"room,omitempty"`
}

// Message is a single log entry. The core fields (ID, Sender, Room,
// Timestamp, Message) are immutable once appended; Reactions and ReadBy
// are mutated in place by the reaction and read-receipt engines.
// A message is private iff To is set.
type Message struct {
	ID        int64               `json:"id"`
	Sender    string              `json:"sender"`
	SenderID  string              `json:"senderId"`
	Room      string              `json:"room,omitempty"`
	Message   string              `json:"message"`
	Timestamp string              `json:"timestamp"`
	Reactions map[string][]string `json:"reactions"`
	ReadBy    []string            `json:"readBy,omitempty"`
	IsPrivate bool                `json:"isPrivate,omitempty"`
	To        string              `json:"to,omitempty"`

	// Attachment descriptor. The server only carries these through;
	// content is never inspected or stored.
	FileURL  string `json:"fileURL,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// JoinPayload is the user_join_room request body.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// SendPayload is the send_message / file_share request body.
type SendPayload struct {
	Message  string `json:"message"`
	FileURL  string `json:"fileURL,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// PrivatePayload is the private_message request body.
type PrivatePayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// ReactPayload is the react_message request body.
type ReactPayload struct {
	MessageID    int64  `json:"messageId"`
	ReactionType string `json:"reactionType"`
}

// ReadReceiptPayload is the read_receipt request body.
type ReadReceiptPayload struct {
	Room          string `json:"room"`
	LastMessageID int64  `json:"lastMessageId"`
}

// UserEvent is the user_joined / user_left notification body.
type UserEvent struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Room     string `json:"room"`
}

// ReactionEvent is the message_reacted notification body. It carries the
// complete reaction map, not a delta, so desynced clients self-correct.
type ReactionEvent struct {
	MessageID    int64               `json:"messageId"`
	NewReactions map[string][]string `json:"newReactions"`
}

// ReadEvent is the message_read notification body, delivered only to the
// original sender's connection.
type ReadEvent struct {
	MessageID int64  `json:"messageId"`
	ReaderID  string `json:"readerId"`
}
