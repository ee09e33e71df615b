package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/infra/logging"
	"resume-ai-backend/internal/infra/metrics"
	"resume-ai-backend/internal/infra/payment"
	"resume-ai-backend/internal/usecase"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeDomainError maps the domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message; the cause stays in the logs.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPromoNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientCredit):
		writeError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrPromoAlreadyRedeemed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPromoInactive),
		errors.Is(err, domain.ErrPromoExpired),
		errors.Is(err, domain.ErrPromoExhausted):
		writeError(w, http.StatusGone, err.Error())
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// ===== Auth =====

type authSessionRequest struct {
	Token string `json:"token"`
}

type authSessionResponse struct {
	SessionToken string `json:"session_token"`
	Email        string `json:"email"`
}

func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	var req authSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, err := s.identity.Verify(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "identity verification failed")
		return
	}
	signed, err := s.sessions.Mint(email)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to mint session")
		return
	}
	writeJSON(w, http.StatusOK, authSessionResponse{SessionToken: signed, Email: email})
}

// ===== Profile =====

type profileResponse struct {
	Email         string          `json:"email"`
	FullName      string          `json:"full_name"`
	Phone         string          `json:"phone,omitempty"`
	Location      string          `json:"location,omitempty"`
	LinkedIn      string          `json:"linkedin,omitempty"`
	Portfolio     string          `json:"portfolio,omitempty"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	PromoRedeemed bool            `json:"promo_redeemed"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toProfileResponse(a *model.Account) profileResponse {
	return profileResponse{
		Email:         a.Email,
		FullName:      a.FullName,
		Phone:         a.Phone,
		Location:      a.Location,
		LinkedIn:      a.LinkedIn,
		Portfolio:     a.Portfolio,
		CreditBalance: a.CreditBalance,
		PromoRedeemed: a.PromoRedeemed,
		CreatedAt:     a.CreatedAt,
	}
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	acct, err := s.profileUC.Get(r.Context(), sessionEmail(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(acct))
}

type profileSaveRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin"`
	Portfolio string `json:"portfolio"`
}

func (s *Server) handleProfileSave(w http.ResponseWriter, r *http.Request) {
	var req profileSaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	acct, created, err := s.profileUC.Save(r.Context(), sessionEmail(r.Context()), usecase.SaveProfileInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Location:  req.Location,
		LinkedIn:  req.LinkedIn,
		Portfolio: req.Portfolio,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to save profile")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toProfileResponse(acct))
}

func (s *Server) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.profileUC.Delete(r.Context(), sessionEmail(r.Context())); err != nil {
		s.writeDomainError(w, r, err, "failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Balance(r.Context(), sessionEmail(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err, "failed to load balance")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Credits decimal.Decimal `json:"credits"`
	}{Credits: balance})
}

// ===== Documents =====

type documentResponse struct {
	HTML        string          `json:"html"`
	CreditsLeft decimal.Decimal `json:"credits_left"`
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, res *usecase.DocumentResult, err error) {
	if err != nil {
		s.writeDomainError(w, r, err, "generation failed")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{HTML: res.HTML, CreditsLeft: res.CreditsLeft})
}

type resumeRequest struct {
	Style          string `json:"style"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

func (s *Server) handleGenerateResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.documentUC.GenerateResume(r.Context(), sessionEmail(r.Context()), usecase.ResumeInput{
		Style:          req.Style,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
	})
	s.writeDocument(w, r, res, err)
}

type coverLetterRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	HiringManager  string `json:"hiring_manager"`
	Motivation     string `json:"motivation"`
	Highlight      string `json:"highlight"`
}

func (s *Server) handleGenerateCoverLetter(w http.ResponseWriter, r *http.Request) {
	var req coverLetterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.documentUC.GenerateCoverLetter(r.Context(), sessionEmail(r.Context()), usecase.CoverLetterInput{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		HiringManager:  req.HiringManager,
		Motivation:     req.Motivation,
		Highlight:      req.Highlight,
	})
	s.writeDocument(w, r, res, err)
}

type refineRequest struct {
	HTML        string `json:"html"`
	Instruction string `json:"instruction"`
	Kind        string `json:"kind"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.documentUC.Refine(r.Context(), sessionEmail(r.Context()), usecase.RefineInput{
		HTML:        req.HTML,
		Instruction: req.Instruction,
		Kind:        req.Kind,
	})
	s.writeDocument(w, r, res, err)
}

// ===== Promo =====

type promoRedeemRequest struct {
	Code string `json:"code"`
}

type promoRedeemResponse struct {
	Code       string          `json:"code"`
	Reward     decimal.Decimal `json:"reward"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Message    string          `json:"message"`
}

func (s *Server) handlePromoRedeem(w http.ResponseWriter, r *http.Request) {
	var req promoRedeemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	red, err := s.promoUC.Redeem(r.Context(), sessionEmail(r.Context()), req.Code)
	if err != nil {
		s.writeDomainError(w, r, err, "redemption failed")
		return
	}
	writeJSON(w, http.StatusOK, promoRedeemResponse{
		Code:       red.Code,
		Reward:     red.Reward,
		NewBalance: red.NewBalance,
		Message:    red.Message,
	})
}

// ===== Billing =====

type checkoutRequest struct {
	PackID   string `json:"pack_id"`
	Currency string `json:"currency"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	url, err := s.billingUC.CreateCheckout(r.Context(), sessionEmail(r.Context()), req.PackID, req.Currency)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create checkout")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CheckoutURL string `json:"checkout_url"`
	}{CheckoutURL: url})
}

type paymentResponse struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	CreditsAdded decimal.Decimal `json:"credits_added"`
	PackID       string          `json:"pack_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (s *Server) handleBillingHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := s.billingUC.History(r.Context(), sessionEmail(r.Context()), 50)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to list payments")
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponse{
			Amount:       p.Amount,
			Currency:     p.Currency,
			CreditsAdded: p.CreditsAdded,
			PackID:       p.PackID,
			CreatedAt:    p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []paymentResponse `json:"data"`
	}{Data: out})
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// handleWebhook always ACKs with a 200 once the payload was read; a non-200
// would make the processor retry deliveries we have already classified.
// Authentication is the payload signature, never a session.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	l := logging.With(r.Context(), s.log)

	if err := s.webhooks.Verify(payload, r.Header.Get("Stripe-Signature")); err != nil {
		l.Warn().Err(err).Msg("webhook signature rejected")
		metrics.IncWebhookOutcome(string(usecase.OutcomeInvalidSignature))
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: string(usecase.OutcomeInvalidSignature)})
		return
	}

	ev, err := payment.ParseEvent(payload)
	if err != nil {
		l.Warn().Err(err).Msg("webhook payload rejected")
		metrics.IncWebhookOutcome(string(usecase.OutcomeIgnored))
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: string(usecase.OutcomeIgnored)})
		return
	}

	outcome, err := s.billingUC.Reconcile(r.Context(), ev)
	if err != nil {
		l.Error().Err(err).Str("checkout_ref", ev.CheckoutRef).Msg("webhook reconciliation failed")
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: string(outcome)})
}

// ===== Admin: promo codes =====

type promoCodeResponse struct {
	Code         string          `json:"code"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	Active       bool            `json:"active"`
	MaxUses      *int            `json:"max_uses,omitempty"`
	UsedCount    int             `json:"used_count"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toPromoCodeResponse(p *model.PromoCode) promoCodeResponse {
	return promoCodeResponse{
		Code:         p.Code,
		RewardAmount: p.RewardAmount,
		Active:       p.Active,
		MaxUses:      p.MaxUses,
		UsedCount:    p.UsedCount,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    p.CreatedAt,
	}
}

func (s *Server) handleAdminPromoList(w http.ResponseWriter, r *http.Request) {
	codes, err := s.promoUC.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "failed to list promo codes")
		return
	}
	out := make([]promoCodeResponse, 0, len(codes))
	for _, p := range codes {
		out = append(out, toPromoCodeResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []promoCodeResponse `json:"data"`
	}{Data: out})
}

type promoCreateRequest struct {
	Code         string          `json:"code"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	MaxUses      *int            `json:"max_uses"`
	ExpiresAt    *time.Time      `json:"expires_at"`
}

func (s *Server) handleAdminPromoCreate(w http.ResponseWriter, r *http.Request) {
	var req promoCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	promo, err := s.promoUC.Create(r.Context(), req.Code, req.RewardAmount, req.MaxUses, req.ExpiresAt)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create promo code")
		return
	}
	writeJSON(w, http.StatusCreated, toPromoCodeResponse(promo))
}

func (s *Server) handleAdminPromoGet(w http.ResponseWriter, r *http.Request) {
	promo, err := s.promoUC.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get promo code")
		return
	}
	writeJSON(w, http.StatusOK, toPromoCodeResponse(promo))
}

type promoUpdateRequest struct {
	RewardAmount *decimal.Decimal `json:"reward_amount"`
	Active       *bool            `json:"active"`
	MaxUses      *int             `json:"max_uses"`
	ExpiresAt    *time.Time       `json:"expires_at"`
}

func (s *Server) handleAdminPromoUpdate(w http.ResponseWriter, r *http.Request) {
	var req promoUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	promo, err := s.promoUC.Update(r.Context(), chi.URLParam(r, "code"), req.RewardAmount, req.Active, req.MaxUses, req.ExpiresAt)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to update promo code")
		return
	}
	writeJSON(w, http.StatusOK, toPromoCodeResponse(promo))
}

func (s *Server) handleAdminPromoDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.promoUC.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		s.writeDomainError(w, r, err, "failed to delete promo code")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
