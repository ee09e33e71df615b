// File: internal/usecase/document_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/config"
	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/adapter"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/infra/metrics"
)

var _ DocumentUseCase = (*documentUC)(nil)

type ResumeInput struct {
	Style          string
	ResumeText     string
	JobDescription string
}

type CoverLetterInput struct {
	ResumeText     string
	JobDescription string
	HiringManager  string
	Motivation     string
	Highlight      string
}

type RefineInput struct {
	HTML        string
	Instruction string
	Kind        string // "resume" | "cover_letter"
}

type DocumentResult struct {
	HTML        string
	CreditsLeft decimal.Decimal
}

// DocumentUseCase owns the caller side of the ledger contract:
// check, then debit, then attempt the external generation, then refund on
// any failure. The generator output is opaque; only success or failure
// matters to the credit flow.
type DocumentUseCase interface {
	GenerateResume(ctx context.Context, email string, in ResumeInput) (*DocumentResult, error)
	GenerateCoverLetter(ctx context.Context, email string, in CoverLetterInput) (*DocumentResult, error)
	Refine(ctx context.Context, email string, in RefineInput) (*DocumentResult, error)
}

type documentUC struct {
	ledger   CreditLedger
	accounts repository.AccountRepository
	gen      adapter.DocumentGenerator

	generateCost decimal.Decimal
	refineCost   decimal.Decimal
	limits       config.LimitsConfig
	callTimeout  time.Duration
	log          *zerolog.Logger
}

func NewDocumentUseCase(
	ledger CreditLedger,
	accounts repository.AccountRepository,
	gen adapter.DocumentGenerator,
	generateCost, refineCost decimal.Decimal,
	limits config.LimitsConfig,
	callTimeout time.Duration,
	logger *zerolog.Logger,
) *documentUC {
	return &documentUC{
		ledger:       ledger,
		accounts:     accounts,
		gen:          gen,
		generateCost: generateCost,
		refineCost:   refineCost,
		limits:       limits,
		callTimeout:  callTimeout,
		log:          logger,
	}
}

func (u *documentUC) GenerateResume(ctx context.Context, email string, in ResumeInput) (*DocumentResult, error) {
	if len(in.ResumeText) > u.limits.ResumeChars || len(in.JobDescription) > u.limits.JobDescriptionChars {
		return nil, fmt.Errorf("input too long: %w", domain.ErrInvalidArgument)
	}
	acct, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		return nil, err
	}
	req := adapter.GenerateRequest{
		System:      resumeSystemPrompt,
		Prompt:      buildResumePrompt(acct, in),
		MaxTokens:   3500,
		Temperature: 0.4,
	}
	return u.withCredits(ctx, email, u.generateCost, "resume", req)
}

func (u *documentUC) GenerateCoverLetter(ctx context.Context, email string, in CoverLetterInput) (*DocumentResult, error) {
	if len(in.Motivation) > u.limits.ExtraChars || len(in.Highlight) > u.limits.ExtraChars {
		return nil, fmt.Errorf("input too long: %w", domain.ErrInvalidArgument)
	}
	if len(in.ResumeText) > u.limits.ResumeChars || len(in.JobDescription) > u.limits.JobDescriptionChars {
		return nil, fmt.Errorf("input too long: %w", domain.ErrInvalidArgument)
	}
	if _, err := u.accounts.FindByEmail(ctx, repository.NoTX, email); err != nil {
		return nil, err
	}
	req := adapter.GenerateRequest{
		System:      coverLetterSystemPrompt,
		Prompt:      buildCoverLetterPrompt(in),
		MaxTokens:   2500,
		Temperature: 0.7,
	}
	return u.withCredits(ctx, email, u.generateCost, "cover_letter", req)
}

func (u *documentUC) Refine(ctx context.Context, email string, in RefineInput) (*DocumentResult, error) {
	if len(in.Instruction) > u.limits.InstructionChars {
		return nil, fmt.Errorf("instruction exceeds %d characters: %w", u.limits.InstructionChars, domain.ErrInvalidArgument)
	}
	if len(in.HTML) > u.limits.HTMLChars {
		return nil, fmt.Errorf("document too large to process (%d chars): %w", len(in.HTML), domain.ErrInvalidArgument)
	}
	req := adapter.GenerateRequest{
		System:      refineSystemPrompt,
		Prompt:      buildRefinePrompt(in),
		MaxTokens:   5000,
		Temperature: 0.2,
	}
	return u.withCredits(ctx, email, u.refineCost, "refine", req)
}

// withCredits is the debit/attempt/refund envelope. The debit commits before
// the generator call so concurrent requests cannot over-spend a balance; the
// refund runs on a detached context so an aborted request still returns the
// borrowed credits.
func (u *documentUC) withCredits(ctx context.Context, email string, cost decimal.Decimal, kind string, req adapter.GenerateRequest) (*DocumentResult, error) {
	ok, err := u.ledger.HasSufficientBalance(ctx, email, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s credits required: %w", cost.String(), domain.ErrInsufficientCredit)
	}

	remaining, err := u.ledger.DebitAtomic(ctx, email, cost)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	start := time.Now()
	html, genErr := u.gen.GenerateHTML(callCtx, req)
	metrics.ObserveGeneratorCall(u.gen.Name(), kind, genErr == nil, time.Since(start))
	if genErr == nil && strings.TrimSpace(html) == "" {
		genErr = fmt.Errorf("empty response from generator")
	}
	if genErr != nil {
		u.refund(ctx, email, cost, kind, genErr)
		return nil, fmt.Errorf("generation failed, credits refunded: %w", genErr)
	}

	return &DocumentResult{HTML: html, CreditsLeft: remaining}, nil
}

func (u *documentUC) refund(ctx context.Context, email string, cost decimal.Decimal, kind string, cause error) {
	// The caller's context may already be canceled; the refund must land
	// regardless, so it runs on its own deadline.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := u.ledger.Credit(rctx, repository.NoTX, email, cost, "refund"); err != nil {
		u.log.Error().Err(err).
			Str("kind", kind).
			Str("amount", cost.String()).
			AnErr("cause", cause).
			Msg("refund after failed generation did not apply")
		return
	}
	u.log.Warn().Str("kind", kind).Str("amount", cost.String()).Err(cause).Msg("generation failed, credits refunded")
}

const resumeSystemPrompt = `You are a professional resume writer. Create ATS-friendly resumes as a single HTML document with inline CSS. Use only the provided candidate data, include contact, summary, experience, education and skills sections, and style according to the requested resume style. Output only the HTML document.`

const coverLetterSystemPrompt = `You write narrative-driven professional cover letters. Plain business-letter styling, no bullet points, no creative layouts. Generate only the HTML content with embedded CSS in a <style> tag.`

const refineSystemPrompt = `You refine resumes and cover letters without changing their structure. You receive HTML content; modify only what the instruction asks, preserve formatting, tags and layout, and return the full updated HTML only.`

func buildResumePrompt(acct *model.Account, in ResumeInput) string {
	var b strings.Builder
	b.WriteString("Resume style: ")
	b.WriteString(in.Style)
	b.WriteString("\n\nCandidate details:\n")
	writeLine(&b, "Full Name", acct.FullName)
	writeLine(&b, "Email", acct.Email)
	writeLine(&b, "Phone", acct.Phone)
	writeLine(&b, "Location", acct.Location)
	writeLine(&b, "LinkedIn", acct.LinkedIn)
	writeLine(&b, "Portfolio", acct.Portfolio)
	b.WriteString("\nCurrent resume content:\n")
	b.WriteString(in.ResumeText)
	b.WriteString("\n\nTarget job description:\n")
	b.WriteString(in.JobDescription)
	return b.String()
}

func buildCoverLetterPrompt(in CoverLetterInput) string {
	manager := strings.TrimSpace(in.HiringManager)
	if manager == "" {
		manager = "Hiring Manager"
	}
	var b strings.Builder
	b.WriteString("Target job description:\n")
	b.WriteString(in.JobDescription)
	b.WriteString("\n\nCandidate resume:\n")
	b.WriteString(in.ResumeText)
	b.WriteString("\n\nHiring manager: ")
	b.WriteString(manager)
	writeLine(&b, "\nWhy this company", in.Motivation)
	writeLine(&b, "Highlight story", in.Highlight)
	return b.String()
}

func buildRefinePrompt(in RefineInput) string {
	context := "You are refining a resume."
	if in.Kind == "cover_letter" {
		context = "You are refining a cover letter. Maintain the letter format, flow, and professional tone."
	}
	return fmt.Sprintf("CONTEXT: %s\n\nINSTRUCTION:\n%s\n\nCURRENT CONTENT HTML:\n%s", context, in.Instruction, in.HTML)
}

func writeLine(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
