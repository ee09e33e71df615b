//go:build !integration

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
)

func seedAccount(t *testing.T, repo *memAccountRepo, email string, balance string) {
	t.Helper()
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("bad balance %q: %v", balance, err)
	}
	acct, err := model.NewAccount(email, "Test User", bal)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if err := repo.Save(context.Background(), repository.NoTX, acct); err != nil {
		t.Fatalf("save account: %v", err)
	}
}

func TestLedgerDebitAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("debits and returns new balance", func(t *testing.T) {
		repo := newMemAccountRepo()
		seedAccount(t, repo, "a@example.com", "5")
		uc := NewCreditLedger(repo, testLogger())

		bal, err := uc.DebitAtomic(ctx, "a@example.com", decimal.NewFromInt(1))
		if err != nil {
			t.Fatalf("debit: %v", err)
		}
		if !bal.Equal(decimal.NewFromInt(4)) {
			t.Fatalf("balance = %s, want 4", bal)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		repo := newMemAccountRepo()
		seedAccount(t, repo, "a@example.com", "0.5")
		uc := NewCreditLedger(repo, testLogger())

		_, err := uc.DebitAtomic(ctx, "a@example.com", decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrInsufficientCredit) {
			t.Fatalf("err = %v, want ErrInsufficientCredit", err)
		}
	})

	t.Run("missing account reads as insufficient", func(t *testing.T) {
		uc := NewCreditLedger(newMemAccountRepo(), testLogger())
		_, err := uc.DebitAtomic(ctx, "ghost@example.com", decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrInsufficientCredit) {
			t.Fatalf("err = %v, want ErrInsufficientCredit", err)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		uc := NewCreditLedger(newMemAccountRepo(), testLogger())
		_, err := uc.DebitAtomic(ctx, "a@example.com", decimal.NewFromInt(-1))
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("fractional debit", func(t *testing.T) {
		repo := newMemAccountRepo()
		seedAccount(t, repo, "a@example.com", "1")
		uc := NewCreditLedger(repo, testLogger())

		bal, err := uc.DebitAtomic(ctx, "a@example.com", decimal.RequireFromString("0.5"))
		if err != nil {
			t.Fatalf("debit: %v", err)
		}
		if !bal.Equal(decimal.RequireFromString("0.5")) {
			t.Fatalf("balance = %s, want 0.5", bal)
		}
	})
}

// Two concurrent debits against a balance that only covers one must end
// with exactly one success; the losing request never sees a negative
// balance.
func TestLedgerConcurrentDebit(t *testing.T) {
	ctx := context.Background()
	repo := newMemAccountRepo()
	seedAccount(t, repo, "race@example.com", "1")
	uc := NewCreditLedger(repo, testLogger())

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.DebitAtomic(ctx, "race@example.com", decimal.NewFromInt(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientCredit) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}

	bal, err := uc.Balance(ctx, "race@example.com")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(decimal.Zero) {
		t.Fatalf("final balance = %s, want 0", bal)
	}
}

func TestLedgerCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits and returns new balance", func(t *testing.T) {
		repo := newMemAccountRepo()
		seedAccount(t, repo, "a@example.com", "2")
		uc := NewCreditLedger(repo, testLogger())

		bal, err := uc.Credit(ctx, repository.NoTX, "a@example.com", decimal.NewFromInt(3), "purchase")
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
		if !bal.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("balance = %s, want 5", bal)
		}
	})

	t.Run("missing account is a silent no-op", func(t *testing.T) {
		uc := NewCreditLedger(newMemAccountRepo(), testLogger())
		bal, err := uc.Credit(ctx, repository.NoTX, "ghost@example.com", decimal.NewFromInt(3), "purchase")
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
		if !bal.Equal(decimal.Zero) {
			t.Fatalf("balance = %s, want 0", bal)
		}
	})
}

func TestLedgerHasSufficientBalance(t *testing.T) {
	ctx := context.Background()
	repo := newMemAccountRepo()
	seedAccount(t, repo, "a@example.com", "1")
	uc := NewCreditLedger(repo, testLogger())

	ok, err := uc.HasSufficientBalance(ctx, "a@example.com", decimal.NewFromInt(1))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v, want true", ok, err)
	}
	ok, err = uc.HasSufficientBalance(ctx, "a@example.com", decimal.NewFromInt(2))
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want false", ok, err)
	}
	ok, err = uc.HasSufficientBalance(ctx, "ghost@example.com", decimal.NewFromInt(1))
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want false for missing account", ok, err)
	}
}