package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resume-ai-backend/internal/usecase"
)

var (
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrMalformedHeader  = errors.New("malformed signature header")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// WebhookVerifier authenticates webhook deliveries with the processor's
// shared secret. The scheme is the Stripe one: the signature header carries
// `t=<unix>,v1=<hex hmac>` and the MAC covers `<t>.<raw body>`.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) error {
	var (
		ts   int64
		macs [][]byte
	)
	for _, part := range strings.Split(sigHeader, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return ErrMalformedHeader
			}
			ts = n
		case "v1":
			mac, err := hex.DecodeString(val)
			if err != nil {
				return ErrMalformedHeader
			}
			macs = append(macs, mac)
		}
	}
	if ts == 0 || len(macs) == 0 {
		return ErrMalformedHeader
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return ErrStaleTimestamp
		}
	}

	h := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(h, "%d.", ts)
	h.Write(payload)
	expected := h.Sum(nil)
	for _, mac := range macs {
		if hmac.Equal(mac, expected) {
			return nil
		}
	}
	return ErrBadSignature
}

// webhookEnvelope mirrors the processor's event JSON shape.
type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal int64             `json:"amount_total"`
			Currency    string            `json:"currency"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified payload into the usecase-level event.
func ParseEvent(payload []byte) (*usecase.CheckoutEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, ErrMalformedPayload
	}
	if env.Type == "" {
		return nil, ErrMalformedPayload
	}
	return &usecase.CheckoutEvent{
		Type:        env.Type,
		CheckoutRef: env.Data.Object.ID,
		AmountTotal: env.Data.Object.AmountTotal,
		Currency:    env.Data.Object.Currency,
		Metadata:    env.Data.Object.Metadata,
	}, nil
}
