package model

import (
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
)

// CreditPack maps a purchasable pack to the credits it grants and the
// processor price reference per currency. The same catalog backs both the
// checkout-creation flow and webhook reconciliation so they cannot drift.
type CreditPack struct {
	ID      string
	Credits decimal.Decimal
	Prices  map[string]string // currency -> processor price reference
}

func (p CreditPack) Validate() error {
	if p.ID == "" {
		return domain.ErrInvalidArgument
	}
	if !p.Credits.IsPositive() {
		return domain.ErrInvalidArgument
	}
	if len(p.Prices) == 0 {
		return domain.ErrInvalidArgument
	}
	for cur, ref := range p.Prices {
		if cur == "" || ref == "" {
			return domain.ErrInvalidArgument
		}
	}
	return nil
}

// PackCatalog is the injected pricing table (no module-level constants, so
// pack changes do not require touching ledger logic).
type PackCatalog map[string]CreditPack

func (c PackCatalog) Lookup(packID string) (CreditPack, bool) {
	p, ok := c[packID]
	return p, ok
}

func (c PackCatalog) Validate() error {
	if len(c) == 0 {
		return domain.ErrInvalidArgument
	}
	for id, p := range c {
		if p.ID != id {
			return domain.ErrInvalidArgument
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
