package ai

import (
	"context"

	"resume-ai-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.DocumentGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner adapter.DocumentGenerator
	sem   chan struct{}
}

// NewLimitedGenerator caps concurrent in-flight generator calls.
func NewLimitedGenerator(inner adapter.DocumentGenerator, maxConcurrent int) adapter.DocumentGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) GenerateHTML(ctx context.Context, req adapter.GenerateRequest) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.GenerateHTML(ctx, req)
}
