// Package rest exposes the query surface: paginated room history and a
// liveness root. Reads only; all mutation goes through the websocket
// protocol.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/api/ws"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/service"
)

const defaultPageLimit = 20

type RESTConfig struct {
	ChatService service.ChatService
	CORSOrigins []string
	RootCtx     context.Context
}

// RegisterRESTRoutes mounts /api/messages and the root liveness
// endpoint on mux.
func RegisterRESTRoutes(mux *http.ServeMux, cfg RESTConfig) {
	log := logger.FromContext(cfg.RootCtx).WithModule("rest")
	cors := corsMiddleware(cfg.CORSOrigins, log)

	mux.Handle("/api/messages", cors(messagesHandler(cfg.ChatService, log)))
	mux.Handle("/", cors(rootHandler()))
}

// messagesHandler serves paginated, ascending-id, non-private room
// history. The server is offset-agnostic: an out-of-range offset is an
// empty page, which the client reads as "no more history".
func messagesHandler(chatService service.ChatService, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		room := r.URL.Query().Get("room")
		limit := queryInt(r, "limit", defaultPageLimit)
		offset := queryInt(r, "offset", 0)

		page := chatService.PageMessages(room, limit, offset)
		log.Debugf("history page room=%s limit=%d offset=%d -> %d messages", room, limit, offset, len(page))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(page); err != nil {
			log.Errorf("failed to encode history page: %v", err)
		}
	}
}

func rootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "Chat server is running")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// corsMiddleware reflects the request origin when it is in the
// configured allow list. The list is normalized with the same helper
// the websocket upgrade check uses, so a configured origin is accepted
// or rejected identically on both surfaces.
func corsMiddleware(origins []string, log logger.Logger) func(http.Handler) http.Handler {
	allowed, allowAll := ws.NormalizeOrigins(origins, log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				normalized, ok := ws.NormalizeOrigin(origin)
				if allowAll || (ok && allowed[normalized]) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
