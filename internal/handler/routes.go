package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vathakkar/ai-voice-concierge/internal/cache"
	"github.com/vathakkar/ai-voice-concierge/internal/config"
	"github.com/vathakkar/ai-voice-concierge/internal/llm"
	"github.com/vathakkar/ai-voice-concierge/internal/repository"
	"github.com/vathakkar/ai-voice-concierge/internal/services/call"
	"github.com/vathakkar/ai-voice-concierge/internal/session"
	applogger "github.com/vathakkar/ai-voice-concierge/pkg/logger"
	appredis "github.com/vathakkar/ai-voice-concierge/pkg/redis"
	"go.uber.org/zap"
)

// HandlerManager wires stores, cache, session registry, model client and the
// state machine together and owns route registration.
type HandlerManager struct {
	config      *config.Config
	repoManager *repository.Manager
	registry    *session.Registry
	service     *call.Service

	webhookHandler *TwilioWebhookHandler
	adminHandler   *AdminHandler
}

// NewHandlerManager creates and initializes all handlers and services.
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	repoManager, err := repository.NewManager()
	if err != nil {
		applogger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Redis is optional; without it every allow-list lookup hits the database.
	var redisSvc appredis.ServiceInterface
	if cfg.RedisHost != "" {
		svc, err := appredis.NewService(&appredis.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			applogger.Base().Warn("failed to initialize redis, running without allow-list cache", zap.Error(err))
		} else {
			redisSvc = svc
			applogger.Base().Info("allow-list cache enabled")
		}
	}
	allowlist := cache.NewCachedAllowlist(repoManager.Allowlist(), redisSvc, cache.DefaultTTL)

	registry := session.NewRegistry(cfg.SessionIdleTimeout)
	go registry.StartJanitor(context.Background(), time.Minute)

	model := llm.NewClient(llm.Config{
		Endpoint:   cfg.AzureOpenAIEndpoint,
		APIKey:     cfg.AzureOpenAIKey,
		Deployment: cfg.AzureOpenAIDeployment,
		APIVersion: cfg.AzureOpenAIAPIVersion,
		Timeout:    cfg.ModelTimeout,
	})

	service := call.NewService(call.Config{
		RealPhoneNumber:    cfg.RealPhoneNumber,
		GatherTimeoutSec:   cfg.GatherTimeoutSec,
		RepromptTimeoutSec: cfg.RepromptTimeoutSec,
		DialTimeoutSec:     cfg.DialTimeoutSec,
	}, repoManager.CallLog(), allowlist, registry, model)

	return &HandlerManager{
		config:         cfg,
		repoManager:    repoManager,
		registry:       registry,
		service:        service,
		webhookHandler: NewTwilioWebhookHandler(service),
		adminHandler:   NewAdminHandler(repoManager.CallLog(), allowlist),
	}, nil
}

// SetupAllRoutes registers every route with its middleware.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(GlobalLoggingMiddleware)

	// Carrier webhooks.
	router.HandleFunc(call.IncomingCallPath, hm.webhookHandler.HandleIncomingCall).Methods(http.MethodPost)
	router.HandleFunc(call.SpeechResultPath, hm.webhookHandler.HandleSpeechResult).Methods(http.MethodPost)
	router.HandleFunc(call.ProcessSpeechPath, hm.webhookHandler.HandleProcessSpeech).Methods(http.MethodPost)
	router.HandleFunc(call.TransferOutcomePath, hm.webhookHandler.HandleTransferOutcome).Methods(http.MethodPost)

	// Admin surface behind the JWT check.
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(AdminAuthMiddleware(hm.config.AdminJWTSecret))
	admin.HandleFunc("/conversations", hm.adminHandler.RecentConversations).Methods(http.MethodGet)
	admin.HandleFunc("/exceptions", hm.adminHandler.ListAllowlist).Methods(http.MethodGet)
	admin.HandleFunc("/exceptions", hm.adminHandler.AddAllowlist).Methods(http.MethodPost)
	admin.HandleFunc("/exceptions/remove", hm.adminHandler.RemoveAllowlist).Methods(http.MethodPost)
	admin.HandleFunc("/exceptions/restore", hm.adminHandler.RestoreAllowlist).Methods(http.MethodPost)
	admin.HandleFunc("/exceptions/lookup", hm.adminHandler.LookupAllowlist).Methods(http.MethodGet)

	// Health.
	router.HandleFunc("/healthz", hm.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/healthz/db", hm.handleDBHealth).Methods(http.MethodGet)
}

func (hm *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "AI Voice Concierge is running",
		"status":  "healthy",
	})
}

func (hm *HandlerManager) handleDBHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := hm.repoManager.Ping(ctx); err != nil {
		applogger.Base().Error("database health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "database connection successful"})
}

// Close releases the handler manager's resources.
func (hm *HandlerManager) Close() error {
	return hm.repoManager.Close()
}
