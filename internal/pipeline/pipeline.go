// Package pipeline wires the stages of one generation run: extraction,
// classification, gap resolution, normalization, rendering. The pipeline
// is strictly sequential; the only suspension point is waiting for a
// follow-up answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"specforge.app/specforge/common/id"
	"specforge.app/specforge/common/logger"
	"specforge.app/specforge/internal/normalize"
	"specforge.app/specforge/internal/provider"
	"specforge.app/specforge/internal/render"
	"specforge.app/specforge/internal/resolve"
	"specforge.app/specforge/internal/specerr"
)

// AskFunc delivers one follow-up question to the external actor and blocks
// until exactly one answer arrives. Returning an error aborts the session.
type AskFunc func(ctx context.Context, question resolve.Question) (string, error)

// Request describes one generation run.
type Request struct {
	RunID       int64 // assigned when zero
	Prompt      string
	Interactive bool
	Ask         AskFunc // required when Interactive
}

// Outcome is the result of a successful run.
type Outcome struct {
	RunID          int64
	Document       *render.Document
	Markdown       string
	QuestionsAsked int
}

type Runner struct {
	resolver   *resolve.Resolver
	normalizer *normalize.Normalizer
}

func NewRunner(p provider.Provider, resolverOpts ...resolve.Option) *Runner {
	return &Runner{
		resolver:   resolve.New(p, resolverOpts...),
		normalizer: normalize.New(p),
	}
}

// Generate runs the full pipeline for one prompt. The returned error maps
// onto the exit-code taxonomy via specerr.ExitCode.
func (r *Runner) Generate(ctx context.Context, req Request) (*Outcome, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required and must be non-empty", specerr.ErrInvalidInput)
	}
	if req.Interactive && req.Ask == nil {
		return nil, fmt.Errorf("%w: interactive mode requires an answer source", specerr.ErrInvalidInput)
	}

	runID := req.RunID
	if runID == 0 {
		runID = id.New()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(runID)})
	slog.InfoContext(ctx, "generation run started",
		"interactive", req.Interactive,
		"prompt", logger.Truncate(prompt, 120))

	session, err := r.resolver.Start(ctx, runID, prompt)
	if err != nil {
		return nil, err
	}

	if req.Interactive {
		if err := r.resolveInteractively(ctx, session, req.Ask); err != nil {
			return nil, err
		}
	} else if unresolved := r.resolver.Unresolved(session); len(unresolved) > 0 {
		return nil, &specerr.MissingFieldsError{Fields: unresolved}
	}

	normalized := r.normalizer.Normalize(ctx, session.Fields)

	doc, err := render.NewDocument(normalized.Values, normalized.Flagged)
	if err != nil {
		return nil, err
	}
	markdown := doc.Markdown()
	if violations := render.Validate(markdown); len(violations) > 0 {
		return nil, fmt.Errorf("render: document failed structural validation: %s", strings.Join(violations, "; "))
	}

	slog.InfoContext(ctx, "specification generated",
		"questions_asked", session.QuestionsAsked(),
		"flagged_fields", len(normalized.Flagged))

	return &Outcome{
		RunID:          runID,
		Document:       doc,
		Markdown:       markdown,
		QuestionsAsked: session.QuestionsAsked(),
	}, nil
}

// resolveInteractively drives the suspend/resume loop: one live question
// at a time until the session resolves or fails.
func (r *Runner) resolveInteractively(ctx context.Context, session *resolve.Session, ask AskFunc) error {
	for {
		question, err := r.resolver.Next(ctx, session)
		if err != nil {
			return err
		}
		if question == nil {
			return nil
		}

		answer, err := ask(ctx, *question)
		if err != nil {
			abortErr := r.resolver.Abort(session)
			if errors.Is(err, context.Canceled) {
				return abortErr
			}
			return fmt.Errorf("%w: %v", abortErr, err)
		}

		if err := r.resolver.Answer(ctx, session, answer); err != nil {
			return err
		}
	}
}
