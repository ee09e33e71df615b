package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"resume-ai-backend/internal/domain/ports/adapter"
	"resume-ai-backend/internal/usecase"
)

// Server owns the HTTP surface: the public API behind session auth, the
// webhook endpoint behind signature auth, and the admin API behind a
// static key.
type Server struct {
	profileUC  usecase.ProfileUseCase
	documentUC usecase.DocumentUseCase
	promoUC    usecase.PromoUseCase
	billingUC  usecase.BillingUseCase
	ledger     usecase.CreditLedger

	identity adapter.IdentityVerifier
	sessions *SessionManager
	webhooks WebhookVerifier
	limiter  RateLimiter

	adminKey      string
	ratePerMinute int
	log           *zerolog.Logger
}

// WebhookVerifier authenticates raw webhook payloads before they reach the
// billing use case.
type WebhookVerifier interface {
	Verify(payload []byte, sigHeader string) error
}

type ServerOptions struct {
	AdminAPIKey   string
	RatePerMinute int
}

func NewServer(
	profileUC usecase.ProfileUseCase,
	documentUC usecase.DocumentUseCase,
	promoUC usecase.PromoUseCase,
	billingUC usecase.BillingUseCase,
	ledger usecase.CreditLedger,
	identity adapter.IdentityVerifier,
	sessions *SessionManager,
	webhooks WebhookVerifier,
	limiter RateLimiter,
	opts ServerOptions,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		profileUC:     profileUC,
		documentUC:    documentUC,
		promoUC:       promoUC,
		billingUC:     billingUC,
		ledger:        ledger,
		identity:      identity,
		sessions:      sessions,
		webhooks:      webhooks,
		limiter:       limiter,
		adminKey:      opts.AdminAPIKey,
		ratePerMinute: opts.RatePerMinute,
		log:           logger,
	}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(Timeout(10 * time.Second)).Post("/auth/session", s.handleAuthSession)

		// Webhook auth is the payload signature, not a session.
		r.With(Timeout(15 * time.Second)).Post("/billing/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.With(Timeout(10 * time.Second)).Group(func(r chi.Router) {
				r.Get("/profile", s.handleProfileGet)
				r.Post("/profile", s.handleProfileSave)
				r.Delete("/profile", s.handleProfileDelete)
				r.Get("/credits", s.handleCredits)
				r.Post("/promo/redeem", s.handlePromoRedeem)
				r.Post("/billing/checkout", s.handleCheckout)
				r.Get("/billing/history", s.handleBillingHistory)
			})

			// Generation calls wait on an external model; they get a wider
			// timeout and the per-account rate window.
			r.With(Timeout(120*time.Second), s.rateLimit).Group(func(r chi.Router) {
				r.Post("/documents/resume", s.handleGenerateResume)
				r.Post("/documents/cover-letter", s.handleGenerateCoverLetter)
				r.Post("/documents/refine", s.handleRefine)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdminKey)
			r.Use(Timeout(10 * time.Second))

			r.Get("/promo-codes", s.handleAdminPromoList)
			r.Post("/promo-codes", s.handleAdminPromoCreate)
			r.Get("/promo-codes/{code}", s.handleAdminPromoGet)
			r.Put("/promo-codes/{code}", s.handleAdminPromoUpdate)
			r.Delete("/promo-codes/{code}", s.handleAdminPromoDelete)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
