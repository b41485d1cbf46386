package domain

import "errors"

// Send failures reported synchronously through the per-call ack. These
// never cross the fan-out path.
var (
	// ErrNotInRoom: a room send was attempted before joining a room.
	ErrNotInRoom = errors.New("not in a room")

	// ErrRecipientOffline: a private send targeted a connection that is
	// no longer connected.
	ErrRecipientOffline = errors.New("recipient offline")

	// ErrUserNotFound: the operation referenced a vanished connection.
	ErrUserNotFound = errors.New("user not found")
)

// AckMessage maps a send failure to the reason text carried in the ack,
// matching the wire strings of the original protocol.
func AckMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotInRoom):
		return "Not in a room."
	case errors.Is(err, ErrRecipientOffline):
		return "Recipient offline."
	case errors.Is(err, ErrUserNotFound):
		return "User not found."
	default:
		return err.Error()
	}
}
