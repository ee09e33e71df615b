package adapter

import "context"

// GenerateRequest is the opaque input to the document generator: a system
// instruction plus a user prompt. The ledger never interprets the output,
// only success or failure.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// DocumentGenerator is the port for the external generative-text service.
type DocumentGenerator interface {
	// GenerateHTML returns the generated HTML document body.
	GenerateHTML(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
}
