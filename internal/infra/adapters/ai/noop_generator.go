package ai

import (
	"context"

	"resume-ai-backend/internal/domain/ports/adapter"
)

var _ adapter.DocumentGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns a canned document. Used in dev mode and tests so
// the credit flow can be exercised without a provider key.
type NoopGenerator struct{}

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (n *NoopGenerator) Name() string { return "noop" }

func (n *NoopGenerator) GenerateHTML(ctx context.Context, req adapter.GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "<html><body><p>placeholder document</p></body></html>", nil
}
