package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/usecase"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubProfileUC and friends return whatever the test assigns; handlers only
// care about the mapping from results to HTTP responses.
type stubProfileUC struct {
	acct    *model.Account
	created bool
	err     error
}

func (s *stubProfileUC) Save(ctx context.Context, email string, in usecase.SaveProfileInput) (*model.Account, bool, error) {
	return s.acct, s.created, s.err
}
func (s *stubProfileUC) Get(ctx context.Context, email string) (*model.Account, error) {
	return s.acct, s.err
}
func (s *stubProfileUC) Delete(ctx context.Context, email string) error { return s.err }

type stubDocumentUC struct {
	res       *usecase.DocumentResult
	err       error
	lastEmail string
}

func (s *stubDocumentUC) GenerateResume(ctx context.Context, email string, in usecase.ResumeInput) (*usecase.DocumentResult, error) {
	s.lastEmail = email
	return s.res, s.err
}
func (s *stubDocumentUC) GenerateCoverLetter(ctx context.Context, email string, in usecase.CoverLetterInput) (*usecase.DocumentResult, error) {
	s.lastEmail = email
	return s.res, s.err
}
func (s *stubDocumentUC) Refine(ctx context.Context, email string, in usecase.RefineInput) (*usecase.DocumentResult, error) {
	s.lastEmail = email
	return s.res, s.err
}

type stubPromoUC struct {
	red   *usecase.Redemption
	promo *model.PromoCode
	list  []*model.PromoCode
	err   error
}

func (s *stubPromoUC) Redeem(ctx context.Context, email, code string) (*usecase.Redemption, error) {
	return s.red, s.err
}
func (s *stubPromoUC) Create(ctx context.Context, code string, reward decimal.Decimal, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error) {
	return s.promo, s.err
}
func (s *stubPromoUC) Update(ctx context.Context, code string, reward *decimal.Decimal, active *bool, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error) {
	return s.promo, s.err
}
func (s *stubPromoUC) Get(ctx context.Context, code string) (*model.PromoCode, error) {
	return s.promo, s.err
}
func (s *stubPromoUC) List(ctx context.Context) ([]*model.PromoCode, error) { return s.list, s.err }
func (s *stubPromoUC) SetActive(ctx context.Context, code string, active bool) error {
	return s.err
}
func (s *stubPromoUC) Delete(ctx context.Context, code string) error { return s.err }

type stubBillingUC struct {
	url     string
	outcome usecase.WebhookOutcome
	history []*model.Payment
	err     error
	lastEv  *usecase.CheckoutEvent
}

func (s *stubBillingUC) CreateCheckout(ctx context.Context, email, packID, currency string) (string, error) {
	return s.url, s.err
}
func (s *stubBillingUC) Reconcile(ctx context.Context, ev *usecase.CheckoutEvent) (usecase.WebhookOutcome, error) {
	s.lastEv = ev
	return s.outcome, s.err
}
func (s *stubBillingUC) History(ctx context.Context, email string, limit int) ([]*model.Payment, error) {
	return s.history, s.err
}

type stubLedger struct {
	balance decimal.Decimal
	err     error
}

func (s *stubLedger) HasSufficientBalance(ctx context.Context, email string, amount decimal.Decimal) (bool, error) {
	return s.balance.GreaterThanOrEqual(amount), s.err
}
func (s *stubLedger) DebitAtomic(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.balance, s.err
}
func (s *stubLedger) Credit(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal, reason string) (decimal.Decimal, error) {
	return s.balance, s.err
}
func (s *stubLedger) Balance(ctx context.Context, email string) (decimal.Decimal, error) {
	return s.balance, s.err
}

type stubIdentity struct {
	email string
	err   error
}

func (s *stubIdentity) Verify(ctx context.Context, token string) (string, error) {
	return s.email, s.err
}

type stubWebhookVerifier struct {
	err error
}

func (s *stubWebhookVerifier) Verify(payload []byte, sigHeader string) error { return s.err }

type stubLimiter struct {
	allow bool
	err   error
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return s.allow, s.err
}
