package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-ai-backend/internal/config"
	"resume-ai-backend/internal/domain/ports/adapter"
	aiAdapters "resume-ai-backend/internal/infra/adapters/ai"
	"resume-ai-backend/internal/infra/auth"
	pg "resume-ai-backend/internal/infra/db/postgres"
	"resume-ai-backend/internal/infra/logging"
	"resume-ai-backend/internal/infra/metrics"
	"resume-ai-backend/internal/infra/payment"
	red "resume-ai-backend/internal/infra/redis"
	"resume-ai-backend/internal/infra/web"
	"resume-ai-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed auth, canned generator)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.ApplySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema apply failed")
	}

	// ---- Redis ----
	var limiter web.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set, rate limiting disabled")
	}

	// ---- Repositories ----
	accountRepo := pg.NewPostgresAccountRepo(pool)
	promoRepo := pg.NewPostgresPromoCodeRepo(pool)
	paymentRepo := pg.NewPostgresPaymentRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Generator ----
	var gen adapter.DocumentGenerator
	switch {
	case cfg.AI.OpenAIKey != "":
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter init failed")
		}
		gen = oa
		logger.Info().Str("model", cfg.AI.Model).Msg("generator: openai")
	case cfg.Runtime.Dev:
		gen = aiAdapters.NewNoopGenerator()
		logger.Warn().Msg("generator: noop (dev mode, no ai.openai_key)")
	default:
		logger.Fatal().Msg("ai.openai_key is required outside dev mode")
	}
	gen = aiAdapters.NewLimitedGenerator(gen, cfg.AI.ConcurrentLimit)

	// ---- Checkout gateway ----
	var gateway adapter.CheckoutGateway
	if cfg.Billing.StripeSecretKey != "" {
		gateway, err = payment.NewStripeGateway(cfg.Billing.StripeSecretKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway init failed")
		}
	} else if cfg.Runtime.Dev {
		logger.Warn().Msg("billing.stripe_secret_key not set, checkout disabled")
	} else {
		logger.Fatal().Msg("billing.stripe_secret_key is required outside dev mode")
	}

	// ---- Identity ----
	var identity adapter.IdentityVerifier
	if cfg.Auth.GoogleClientID != "" {
		identity, err = auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
		if err != nil {
			logger.Fatal().Err(err).Msg("google verifier init failed")
		}
	} else {
		// config.validate only lets this branch through in dev mode with
		// the fallback explicitly allowed.
		identity = auth.NewDevVerifier(cfg.Auth.DevEmail)
		logger.Warn().Msg("identity: dev fallback verifier")
	}

	// ---- Use cases ----
	ledger := usecase.NewCreditLedger(accountRepo, logger)
	profileUC := usecase.NewProfileUseCase(accountRepo, cfg.StartingCredits(), logger)
	promoUC := usecase.NewPromoUseCase(accountRepo, promoRepo, ledger, txManager, logger)
	billingUC := usecase.NewBillingUseCase(
		accountRepo, paymentRepo, ledger, txManager, gateway, cfg.PackCatalog(),
		cfg.Billing.DefaultCurrency, cfg.Billing.SuccessURL, cfg.Billing.CancelURL,
		logger,
	)
	documentUC := usecase.NewDocumentUseCase(
		ledger, accountRepo, gen,
		cfg.GenerateCost(), cfg.RefineCost(),
		cfg.Limits, cfg.AI.Timeout,
		logger,
	)

	// ---- HTTP ----
	sessions := web.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	webhooks := payment.NewWebhookVerifier(cfg.Billing.WebhookSecret, cfg.Billing.WebhookTolerance)
	srv := web.NewServer(
		profileUC, documentUC, promoUC, billingUC, ledger,
		identity, sessions, webhooks, limiter,
		web.ServerOptions{
			AdminAPIKey:   cfg.Server.AdminAPIKey,
			RatePerMinute: cfg.Limits.RatePerMinute,
		},
		logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
