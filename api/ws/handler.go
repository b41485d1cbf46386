package ws

import (
	"net/http"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/websocket"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/service"
)

func HandleWebSocket(
	hub *websocket.Hub,
	chatService service.ChatService,
	checkOrigin func(*http.Request) bool,
	logg logger.Logger,
) http.HandlerFunc {
	upgrader := gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("upgrade error: %v", err)
			return
		}

		// Identity is the server-assigned connection id; there is no
		// authentication, the username arrives with the first join.
		connID := uuid.NewString()
		client := &websocket.Connection{
			ID:      connID,
			Ws:      conn,
			Send:    make(chan domain.Frame, 256),
			Hub:     hub,
			Service: chatService,
			Logger:  logg,
		}

		hub.Register(client)
		if err := chatService.Connect(connID); err != nil {
			logg.Errorf("failed to wire connection %s: %v", connID, err)
			hub.Unregister(connID)
			conn.Close()
			return
		}

		// First frame out tells the client its identity. Queued before
		// the pumps start so it precedes any fan-out.
		client.Send <- domain.NewFrame(domain.EventConnected, domain.ConnectedEvent{ID: connID})

		logg.Infof("user connected: %s (%s)", connID, conn.RemoteAddr())
		go client.WritePump()
		go client.ReadPump()
	}
}
