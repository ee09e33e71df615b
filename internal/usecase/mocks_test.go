//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/adapter"
	"resume-ai-backend/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memAccountRepo is a small in-memory implementation used by unit tests.
// The balance primitives hold the mutex across check and write, mirroring
// the conditional UPDATE the real repository runs.
type memAccountRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Account
	saveErr error // used by tests to simulate save failures
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{store: make(map[string]*model.Account)}
}

func (m *memAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.Email] = &cp
	return nil
}

func (m *memAccountRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[model.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccountRepo) DebitBalance(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[model.NormalizeEmail(email)]
	if !ok || a.CreditBalance.LessThan(amount) {
		return decimal.Zero, domain.ErrInsufficientCredit
	}
	a.CreditBalance = a.CreditBalance.Sub(amount)
	return a.CreditBalance, nil
}

func (m *memAccountRepo) CreditBalance(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	// Refuse canceled contexts the way a real connection would.
	if err := ctx.Err(); err != nil {
		return decimal.Zero, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[model.NormalizeEmail(email)]
	if !ok {
		return decimal.Zero, false, nil
	}
	a.CreditBalance = a.CreditBalance.Add(amount)
	return a.CreditBalance, true, nil
}

func (m *memAccountRepo) MarkPromoRedeemed(ctx context.Context, tx repository.Tx, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[model.NormalizeEmail(email)]
	if !ok {
		return domain.ErrNotFound
	}
	if a.PromoRedeemed {
		return domain.ErrPromoAlreadyRedeemed
	}
	a.PromoRedeemed = true
	a.PromoCodeUsed = &code
	return nil
}

func (m *memAccountRepo) Anonymize(ctx context.Context, tx repository.Tx, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[model.NormalizeEmail(email)]
	if !ok || a.AnonymizedAt != nil {
		return domain.ErrNotFound
	}
	a.Anonymize(time.Now())
	return nil
}

type memPromoRepo struct {
	mu    sync.Mutex
	store map[string]*model.PromoCode
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{store: make(map[string]*model.PromoCode)}
}

func (m *memPromoRepo) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.Code] = &cp
	return nil
}

func (m *memPromoRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPromoRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PromoCode, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPromoRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return domain.ErrPromoNotFound
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return domain.ErrPromoExhausted
	}
	p.UsedCount++
	return nil
}

func (m *memPromoRepo) SetActive(ctx context.Context, tx repository.Tx, code string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return domain.ErrPromoNotFound
	}
	p.Active = active
	return nil
}

func (m *memPromoRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[model.NormalizeCode(code)]; !ok {
		return domain.ErrPromoNotFound
	}
	delete(m.store, model.NormalizeCode(code))
	return nil
}

type memPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Payment // by checkout ref
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.CheckoutRef]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.store[p.CheckoutRef] = &cp
	return nil
}

func (m *memPaymentRepo) FindByCheckoutRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) ListByEmail(ctx context.Context, tx repository.Tx, email string, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Email == model.NormalizeEmail(email) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// nopTxManager runs the function directly; the in-memory repos ignore the
// handle, so rollback semantics are out of scope for these tests.
type nopTxManager struct {
	err error // forced begin failure
}

func (m *nopTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(ctx, repository.NoTX)
}

type mockGenerator struct {
	mu    sync.Mutex
	html  string
	err   error
	calls int
}

func (g *mockGenerator) GenerateHTML(ctx context.Context, req adapter.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.html, nil
}

func (g *mockGenerator) Name() string { return "mock" }

// generatorFunc adapts a plain function for tests that need to observe or
// manipulate the call context.
type generatorFunc func(ctx context.Context, req adapter.GenerateRequest) (string, error)

func (f generatorFunc) GenerateHTML(ctx context.Context, req adapter.GenerateRequest) (string, error) {
	return f(ctx, req)
}

func (f generatorFunc) Name() string { return "mock" }

type mockGateway struct {
	session  *adapter.CheckoutSession
	err      error
	lastMeta map[string]string
}

func (g *mockGateway) CreateCheckout(ctx context.Context, priceRef, customerEmail, successURL, cancelURL string, metadata map[string]string) (*adapter.CheckoutSession, error) {
	g.lastMeta = metadata
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *mockGateway) Name() string { return "mock" }