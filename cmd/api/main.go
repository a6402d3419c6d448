package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/handler"
	monitorhandler "github.com/zhouzirui/paw-relay/backend/internal/handler/monitor"
	"github.com/zhouzirui/paw-relay/backend/internal/handler/webhook"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/service/ai"
	"github.com/zhouzirui/paw-relay/backend/internal/service/dispatch"
	"github.com/zhouzirui/paw-relay/backend/internal/service/graph"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
	"github.com/zhouzirui/paw-relay/backend/internal/service/monitor"
	"github.com/zhouzirui/paw-relay/backend/internal/service/outbound"
	"github.com/zhouzirui/paw-relay/backend/internal/service/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/survey"
	"github.com/zhouzirui/paw-relay/backend/internal/service/triage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	catalog, err := i18n.Load(cfg.Session.DefaultLocale)
	if err != nil {
		logger.Fatal("failed to load locale catalog", zap.Error(err))
	}

	personaStore := persona.NewMemoryStore(persona.Seed(cfg.Personas))
	graphClient := graph.New(cfg.Messenger.Platform, cfg.Messenger.PageAccessToken, cfg.Messenger.HTTPTimeout)
	registry := session.NewRegistry(cfg.Session, graphClient, catalog, logger)

	deps := dispatch.Deps{
		Personas: personaStore,
		Catalog:  catalog,
		Survey:   survey.NewGenerator(catalog),
	}
	opts := []dispatch.Option{dispatch.WithLogger(logger)}

	// 配置了 Ark 时，自由文本交给大模型回复
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, personaStore, cfg.AI, logger)
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing without small talk", zap.Error(err))
		} else {
			opts = append(opts, dispatch.WithSmallTalk(aiService))
			logger.Info("AI small talk enabled", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Info("Ark 凭证未配置，自由文本使用默认回复")
	}
	router := dispatch.NewRouter(deps, nil, opts...)

	gateway := outbound.NewGateway(graphClient, cfg.Messenger.SendRPS, logger)
	hub := monitor.NewHub()
	triager := triage.New(registry, router, gateway, hub, logger)

	// 关闭时等待已确认的回调处理完
	var inflight sync.WaitGroup
	webhookHandler := webhook.New(cfg.Messenger, triager, logger, webhook.WithRunner(func(fn func()) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			fn()
		}()
	}))
	monitorHandler := monitorhandler.New(hub, cfg.Messenger.VerifyToken, logger)

	logStartupHints(logger, cfg, personaStore)

	startServer(ctx, logger, cfg.Server, handler.NewRouter(logger, webhookHandler, monitorHandler))
	inflight.Wait()
	gateway.Wait()
}

func logStartupHints(logger *zap.Logger, cfg *config.Config, personas persona.Store) {
	if url := cfg.Messenger.WebhookURL(); url != "" {
		logger.Info("register this callback URL with the platform", zap.String("webhook", url))
	}
	if !cfg.Personas.Provisioned() {
		logger.Info("first run: no personas configured, set PERSONA_BILLING, PERSONA_ORDER, PERSONA_SALES and PERSONA_CARE to attribute replies")
	} else {
		for _, p := range personas.List() {
			if !p.Attributed() {
				logger.Warn("persona has no id, its replies are sent unattributed", zap.String("name", p.Name))
			}
		}
	}
	if cfg.Messenger.PageID != "" {
		logger.Info("test your app by messaging the page", zap.String("link", "https://m.me/"+cfg.Messenger.PageID))
	}
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("paw relay listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
