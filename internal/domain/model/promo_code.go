package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
)

// PromoCode is a one-time-per-account redeemable token granting a fixed
// credit reward, subject to activation, expiry and usage-cap rules.
type PromoCode struct {
	Code         string
	RewardAmount decimal.Decimal
	Active       bool
	MaxUses      *int
	UsedCount    int
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// NormalizeCode trims and upper-cases a promo code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewPromoCode(code string, reward decimal.Decimal, maxUses *int, expiresAt *time.Time) (*PromoCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Rewards are validated strictly positive at creation time so a
	// misconfigured code can never drain a balance.
	if !reward.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	if maxUses != nil && *maxUses <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &PromoCode{
		Code:         code,
		RewardAmount: reward,
		Active:       true,
		MaxUses:      maxUses,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}, nil
}

// RedeemableAt checks the code's own rules in the documented order:
// activation toggle, then expiry, then usage cap.
func (p *PromoCode) RedeemableAt(now time.Time) error {
	if !p.Active {
		return domain.ErrPromoInactive
	}
	if p.IsExpired(now) {
		return domain.ErrPromoExpired
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return domain.ErrPromoExhausted
	}
	return nil
}

func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}
