// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/adapter"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/infra/metrics"
)

var _ BillingUseCase = (*billingUC)(nil)

// WebhookOutcome is the acknowledged result of one webhook delivery. The
// processor always gets a 200; the outcome records what we did with it.
type WebhookOutcome string

const (
	OutcomeOK               WebhookOutcome = "ok"
	OutcomeIgnored          WebhookOutcome = "ignored"
	OutcomeInvalidSignature WebhookOutcome = "invalid_signature"
	OutcomeInvalidPack      WebhookOutcome = "invalid_pack"
	OutcomeUserNotFound     WebhookOutcome = "user_not_found"
	OutcomeDuplicate        WebhookOutcome = "duplicate"
	OutcomeError            WebhookOutcome = "error"
)

// EventCheckoutCompleted is the only event kind that triggers crediting.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutEvent is the decoded payment-processor notification.
type CheckoutEvent struct {
	Type        string
	CheckoutRef string
	AmountTotal int64 // minor currency units
	Currency    string
	Metadata    map[string]string
}

type BillingUseCase interface {
	// CreateCheckout opens a processor checkout session for a pack and
	// returns the redirect URL. The account must already exist.
	CreateCheckout(ctx context.Context, email, packID, currency string) (string, error)

	// Reconcile converts a verified payment notification into a credited
	// balance plus an immutable receipt, both in one committed unit.
	Reconcile(ctx context.Context, ev *CheckoutEvent) (WebhookOutcome, error)

	// History lists receipts for one account, newest first.
	History(ctx context.Context, email string, limit int) ([]*model.Payment, error)
}

type billingUC struct {
	accounts repository.AccountRepository
	payments repository.PaymentRepository
	ledger   CreditLedger
	tm       repository.TransactionManager
	gateway  adapter.CheckoutGateway
	packs    model.PackCatalog

	defaultCurrency string
	successURL      string
	cancelURL       string
	log             *zerolog.Logger
}

func NewBillingUseCase(
	accounts repository.AccountRepository,
	payments repository.PaymentRepository,
	ledger CreditLedger,
	tm repository.TransactionManager,
	gateway adapter.CheckoutGateway,
	packs model.PackCatalog,
	defaultCurrency, successURL, cancelURL string,
	logger *zerolog.Logger,
) *billingUC {
	return &billingUC{
		accounts:        accounts,
		payments:        payments,
		ledger:          ledger,
		tm:              tm,
		gateway:         gateway,
		packs:           packs,
		defaultCurrency: defaultCurrency,
		successURL:      successURL,
		cancelURL:       cancelURL,
		log:             logger,
	}
}

func (u *billingUC) CreateCheckout(ctx context.Context, email, packID, currency string) (string, error) {
	if u.gateway == nil {
		return "", fmt.Errorf("no checkout gateway configured: %w", domain.ErrOperationFailed)
	}
	pack, ok := u.packs.Lookup(packID)
	if !ok {
		return "", fmt.Errorf("unknown pack %q: %w", packID, domain.ErrInvalidArgument)
	}
	currency = strings.ToLower(currency)
	priceRef, ok := pack.Prices[currency]
	if !ok {
		currency = u.defaultCurrency
		priceRef = pack.Prices[currency]
	}
	if priceRef == "" {
		return "", fmt.Errorf("pack %q has no price for %q: %w", packID, currency, domain.ErrInvalidArgument)
	}

	email = model.NormalizeEmail(email)
	if _, err := u.accounts.FindByEmail(ctx, repository.NoTX, email); err != nil {
		return "", err
	}

	sess, err := u.gateway.CreateCheckout(ctx, priceRef, email, u.successURL, u.cancelURL, map[string]string{
		"account_id": email,
		"pack_id":    packID,
		"currency":   currency,
	})
	if err != nil {
		return "", err
	}
	u.log.Info().Str("pack", packID).Str("currency", currency).Str("session", sess.ID).Msg("checkout session created")
	return sess.URL, nil
}

func (u *billingUC) Reconcile(ctx context.Context, ev *CheckoutEvent) (WebhookOutcome, error) {
	outcome, err := u.reconcile(ctx, ev)
	metrics.IncWebhookOutcome(string(outcome))
	return outcome, err
}

func (u *billingUC) reconcile(ctx context.Context, ev *CheckoutEvent) (WebhookOutcome, error) {
	if ev.Type != EventCheckoutCompleted {
		return OutcomeIgnored, nil
	}

	email := model.NormalizeEmail(ev.Metadata["account_id"])
	packID := ev.Metadata["pack_id"]
	if email == "" || packID == "" {
		// Also covers processor test/ping events without real metadata.
		return OutcomeIgnored, nil
	}

	pack, ok := u.packs.Lookup(packID)
	if !ok {
		return OutcomeInvalidPack, nil
	}

	currency := strings.ToLower(ev.Currency)
	if currency == "" {
		currency = u.defaultCurrency
	}
	amount := amountFromMinorUnits(ev.AmountTotal, currency)

	receipt, err := model.NewPayment(email, amount, currency, pack.Credits, packID, ev.CheckoutRef)
	if err != nil {
		return OutcomeIgnored, nil
	}

	var outcome WebhookOutcome = OutcomeOK
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.accounts.FindByEmail(ctx, tx, email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Accounts are provisioned only through profile creation,
				// never by a payment event.
				outcome = OutcomeUserNotFound
				return nil
			}
			return err
		}
		// The receipt goes in first: its unique checkout reference is what
		// makes a replayed delivery a no-op instead of a double credit.
		if err := u.payments.Save(ctx, tx, receipt); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				outcome = OutcomeDuplicate
				return nil
			}
			return err
		}
		if _, err := u.ledger.Credit(ctx, tx, email, pack.Credits, "purchase"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return OutcomeError, err
	}
	if outcome == OutcomeOK {
		metrics.AddPaymentRevenue(currency, amount.InexactFloat64())
		u.log.Info().
			Str("pack", packID).
			Str("credits", pack.Credits.String()).
			Str("ref", ev.CheckoutRef).
			Msg("payment reconciled")
	}
	return outcome, nil
}

func (u *billingUC) History(ctx context.Context, email string, limit int) ([]*model.Payment, error) {
	return u.payments.ListByEmail(ctx, repository.NoTX, email, limit)
}

// zeroDecimalCurrencies have no minor unit on the processor wire: an
// amount_total of 1000 jpy is 1000 yen, not 10.00.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {},
	"krw": {}, "mga": {}, "pyg": {}, "rwf": {}, "ugx": {}, "vnd": {},
	"vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

func amountFromMinorUnits(total int64, currency string) decimal.Decimal {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return decimal.NewFromInt(total)
	}
	return decimal.New(total, -2)
}
