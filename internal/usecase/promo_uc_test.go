//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
)

type promoFixture struct {
	accounts *memAccountRepo
	promos   *memPromoRepo
	uc       *promoUC
}

func newPromoFixture(t *testing.T) *promoFixture {
	t.Helper()
	accounts := newMemAccountRepo()
	promos := newMemPromoRepo()
	ledger := NewCreditLedger(accounts, testLogger())
	uc := NewPromoUseCase(accounts, promos, ledger, &nopTxManager{}, testLogger())
	return &promoFixture{accounts: accounts, promos: promos, uc: uc}
}

func seedPromo(t *testing.T, repo *memPromoRepo, code string, reward string, maxUses *int, expiresAt *time.Time) {
	t.Helper()
	p, err := model.NewPromoCode(code, decimal.RequireFromString(reward), maxUses, expiresAt)
	if err != nil {
		t.Fatalf("new promo: %v", err)
	}
	if err := repo.Save(context.Background(), repository.NoTX, p); err != nil {
		t.Fatalf("save promo: %v", err)
	}
}

func TestPromoRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("applies reward once", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "5")
		seedPromo(t, f.promos, "WELCOME10", "10", nil, nil)

		red, err := f.uc.Redeem(ctx, "a@example.com", "welcome10")
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if red.Code != "WELCOME10" {
			t.Errorf("code = %q, want normalized WELCOME10", red.Code)
		}
		if !red.NewBalance.Equal(decimal.NewFromInt(15)) {
			t.Errorf("new balance = %s, want 15", red.NewBalance)
		}

		acct, _ := f.accounts.FindByEmail(ctx, repository.NoTX, "a@example.com")
		if !acct.PromoRedeemed || acct.PromoCodeUsed == nil || *acct.PromoCodeUsed != "WELCOME10" {
			t.Errorf("redemption flag not recorded: %+v", acct)
		}
		promo, _ := f.promos.FindByCode(ctx, repository.NoTX, "WELCOME10")
		if promo.UsedCount != 1 {
			t.Errorf("used count = %d, want 1", promo.UsedCount)
		}
	})

	t.Run("second code rejected naming the first", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "0")
		seedPromo(t, f.promos, "FIRST", "5", nil, nil)
		seedPromo(t, f.promos, "SECOND", "5", nil, nil)

		if _, err := f.uc.Redeem(ctx, "a@example.com", "FIRST"); err != nil {
			t.Fatalf("first redeem: %v", err)
		}
		_, err := f.uc.Redeem(ctx, "a@example.com", "SECOND")
		if !errors.Is(err, domain.ErrPromoAlreadyRedeemed) {
			t.Fatalf("err = %v, want ErrPromoAlreadyRedeemed", err)
		}
		if !strings.Contains(err.Error(), "FIRST") {
			t.Errorf("error %q does not name the redeemed code", err)
		}

		// Balance must be untouched by the failed attempt.
		acct, _ := f.accounts.FindByEmail(ctx, repository.NoTX, "a@example.com")
		if !acct.CreditBalance.Equal(decimal.NewFromInt(5)) {
			t.Errorf("balance = %s, want 5", acct.CreditBalance)
		}
	})

	t.Run("blank code fails before account lookup", func(t *testing.T) {
		f := newPromoFixture(t)
		_, err := f.uc.Redeem(ctx, "ghost@example.com", "   ")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newPromoFixture(t)
		seedPromo(t, f.promos, "CODE", "5", nil, nil)
		_, err := f.uc.Redeem(ctx, "ghost@example.com", "CODE")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "0")
		_, err := f.uc.Redeem(ctx, "a@example.com", "NOPE")
		if !errors.Is(err, domain.ErrPromoNotFound) {
			t.Fatalf("err = %v, want ErrPromoNotFound", err)
		}
	})

	t.Run("inactive code", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "0")
		seedPromo(t, f.promos, "OFF", "5", nil, nil)
		if err := f.promos.SetActive(ctx, repository.NoTX, "OFF", false); err != nil {
			t.Fatalf("set active: %v", err)
		}
		_, err := f.uc.Redeem(ctx, "a@example.com", "OFF")
		if !errors.Is(err, domain.ErrPromoInactive) {
			t.Fatalf("err = %v, want ErrPromoInactive", err)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "0")
		past := time.Now().Add(-time.Hour)
		seedPromo(t, f.promos, "OLD", "5", nil, &past)
		_, err := f.uc.Redeem(ctx, "a@example.com", "OLD")
		if !errors.Is(err, domain.ErrPromoExpired) {
			t.Fatalf("err = %v, want ErrPromoExpired", err)
		}
	})

	t.Run("usage cap", func(t *testing.T) {
		f := newPromoFixture(t)
		seedAccount(t, f.accounts, "a@example.com", "0")
		seedAccount(t, f.accounts, "b@example.com", "0")
		one := 1
		seedPromo(t, f.promos, "LIMITED", "5", &one, nil)

		if _, err := f.uc.Redeem(ctx, "a@example.com", "LIMITED"); err != nil {
			t.Fatalf("first redeem: %v", err)
		}
		_, err := f.uc.Redeem(ctx, "b@example.com", "LIMITED")
		if !errors.Is(err, domain.ErrPromoExhausted) {
			t.Fatalf("err = %v, want ErrPromoExhausted", err)
		}
	})
}

func TestPromoAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("create normalizes and rejects duplicates", func(t *testing.T) {
		f := newPromoFixture(t)
		p, err := f.uc.Create(ctx, " spring24 ", decimal.NewFromInt(5), nil, nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.Code != "SPRING24" || !p.Active {
			t.Errorf("unexpected promo %+v", p)
		}
		if _, err := f.uc.Create(ctx, "SPRING24", decimal.NewFromInt(5), nil, nil); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("duplicate create err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("create rejects non-positive reward", func(t *testing.T) {
		f := newPromoFixture(t)
		if _, err := f.uc.Create(ctx, "ZERO", decimal.Zero, nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
		if _, err := f.uc.Create(ctx, "NEG", decimal.NewFromInt(-1), nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("update patches only provided fields", func(t *testing.T) {
		f := newPromoFixture(t)
		seedPromo(t, f.promos, "KEEP", "5", nil, nil)

		reward := decimal.NewFromInt(7)
		p, err := f.uc.Update(ctx, "KEEP", &reward, nil, nil, nil)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !p.RewardAmount.Equal(reward) || !p.Active {
			t.Errorf("unexpected promo after update: %+v", p)
		}
	})

	t.Run("deactivate and delete", func(t *testing.T) {
		f := newPromoFixture(t)
		seedPromo(t, f.promos, "TEMP", "5", nil, nil)

		if err := f.uc.SetActive(ctx, "TEMP", false); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		p, err := f.uc.Get(ctx, "TEMP")
		if err != nil || p.Active {
			t.Fatalf("promo still active after deactivate: %+v err=%v", p, err)
		}
		if err := f.uc.Delete(ctx, "TEMP"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := f.uc.Get(ctx, "TEMP"); !errors.Is(err, domain.ErrPromoNotFound) {
			t.Fatalf("err = %v, want ErrPromoNotFound after delete", err)
		}
	})
}