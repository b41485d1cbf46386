package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/api/rest"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/api/ws"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/config"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/nats"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/presence"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/store"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/websocket"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/service"
)

// App holds every dependency of the chat server and owns their
// lifecycle: NATS fan-out, Redis presence, the in-memory message log,
// the websocket hub, and the HTTP server.
type App struct {
	cfg         config.Config
	logger      logger.Logger
	natsClient  *nats.Client
	presenceDir *presence.Directory
	hub         *websocket.Hub
	chatService service.ChatService
	httpServer  *http.Server
	rootCtx     context.Context
	cancel      context.CancelFunc
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	natsClient, err := nats.NewClient(cfg.NATSURL)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	presenceDir, err := presence.NewDirectory(rootCtx, cfg.RedisURL)
	if err != nil {
		rootCancel()
		natsClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	hub := websocket.NewHub(baseLogger.WithModule("hub"))
	messageLog := store.NewMessageLog()
	chatService := service.NewChatService(rootCtx, natsClient, presenceDir, messageLog, hub)

	mux := http.NewServeMux()
	ws.RegisterWebSocketRoutes(mux, ws.WSConfig{
		Hub:         hub,
		ChatService: chatService,
		CORSOrigins: cfg.CORSOrigins,
		RootCtx:     rootCtx,
	})
	rest.RegisterRESTRoutes(mux, rest.RESTConfig{
		ChatService: chatService,
		CORSOrigins: cfg.CORSOrigins,
		RootCtx:     rootCtx,
	})

	app := &App{
		cfg:         cfg,
		logger:      log,
		natsClient:  natsClient,
		presenceDir: presenceDir,
		hub:         hub,
		chatService: chatService,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: mux,
		},
		rootCtx: rootCtx,
		cancel:  rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal.
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})
	log.Infof("Starting application server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Warnf("Received shutdown signal: %s", sig.String())

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections.
func (a *App) Stop() error {
	a.logger.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Errorf("HTTP server shutdown error: %v", err)
	}

	a.hub.Close()

	a.logger.Infof("Closing NATS connection")
	a.natsClient.Close()

	a.logger.Infof("Closing Redis connection")
	if err := a.presenceDir.Close(); err != nil {
		a.logger.Errorf("Redis close error: %v", err)
	}

	a.logger.Infof("Shutdown completed successfully")
	return nil
}
