package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/vathakkar/ai-voice-concierge/internal/config"
	"github.com/vathakkar/ai-voice-concierge/internal/handler"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

// Server is the AI voice concierge webhook server.
type Server struct {
	config         *config.Config
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer builds the server and all of its handlers.
func NewServer(cfg *config.Config) (*Server, error) {
	router := mux.NewRouter()

	handlerManager, err := handler.NewHandlerManager(cfg)
	if err != nil {
		return nil, err
	}
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		router:         router,
		handlerManager: handlerManager,
	}, nil
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Base().Info("starting server", zap.String("addr", addr))
	return server.ListenAndServe()
}

func main() {
	// .env is for local development; in production everything comes from the
	// process environment.
	_ = godotenv.Load()

	cfg := config.Load()

	if _, err := logger.Init(cfg.LogEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.RealPhoneNumber == "" {
		logger.Base().Warn("REAL_PHONE_NUMBER is not set; transfers will fail to dial")
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Base().Fatal("failed to initialize server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		logger.Base().Fatal("server stopped", zap.Error(err))
	}
}
