package ws

import (
	"context"
	"net/http"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/websocket"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/service"
)

type WSConfig struct {
	Hub         *websocket.Hub
	ChatService service.ChatService
	CORSOrigins []string
	RootCtx     context.Context
}

// RegisterWebSocketRoutes mounts the /ws upgrade endpoint on mux.
func RegisterWebSocketRoutes(mux *http.ServeMux, cfg WSConfig) {
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	checkOrigin := NewOriginChecker(cfg.CORSOrigins, log)
	mux.HandleFunc("/ws", HandleWebSocket(cfg.Hub, cfg.ChatService, checkOrigin, log))
}
