// Package resolve drives the follow-up question loop. The resolver is an
// explicit suspend/resume state machine: Next yields at most one live
// question, Answer resumes with exactly one answer, and the loop ends in
// StateResolved or a hard failure. This keeps the machine testable without
// an interactive terminal.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"specforge.app/specforge/common/logger"
	"specforge.app/specforge/internal/classify"
	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/provider"
	"specforge.app/specforge/internal/schema"
	"specforge.app/specforge/internal/specerr"
)

// MaxAsksPerField bounds re-asks so one stubborn field cannot loop the
// session forever.
const MaxAsksPerField = 3

type Resolver struct {
	provider provider.Provider
	maxAsks  int
}

type Option func(*Resolver)

// WithMaxAsks overrides the per-field re-ask cap. Used by tests.
func WithMaxAsks(n int) Option {
	return func(r *Resolver) { r.maxAsks = n }
}

func New(p provider.Provider, opts ...Option) *Resolver {
	r := &Resolver{provider: p, maxAsks: MaxAsksPerField}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates a session and runs the initial extraction pass.
func (r *Resolver) Start(ctx context.Context, runID int64, prompt string) (*Session, error) {
	session := NewSession(runID, prompt)
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(runID), Stage: logger.Ptr("extract")})

	fields, err := r.provider.Extract(ctx, prompt, nil)
	if err != nil {
		session.state = StateFailed
		return session, err
	}
	if err := checkKeys(fields); err != nil {
		session.state = StateFailed
		return session, &specerr.SchemaInvalidError{Stage: specerr.StageExtract, Err: err}
	}

	session.Fields = fields
	r.settle(session)

	slog.InfoContext(ctx, "initial extraction complete",
		"extracted", len(fields),
		"unresolved", len(classify.Unresolved(fields)),
		"state", session.state)
	return session, nil
}

// Next advances to the next follow-up question. It returns nil when every
// field is accepted. While a question is unanswered, Next returns that
// same question; a second concurrent question never exists.
func (r *Resolver) Next(ctx context.Context, session *Session) (*Question, error) {
	switch session.state {
	case StateResolved:
		return nil, nil
	case StateAwaitingAnswer:
		return session.pending, nil
	case StateFailed:
		return nil, fmt.Errorf("resolve: session already failed")
	}

	unresolved := classify.Unresolved(session.Fields)
	if len(unresolved) == 0 {
		session.state = StateResolved
		return nil, nil
	}

	// Fixed declaration order decides which gap is addressed next, also
	// when an answer regressed several fields at once.
	field := unresolved[0]
	if session.attempts[field] >= r.maxAsks {
		session.state = StateFailed
		return nil, &specerr.UnresolvableFieldError{Field: field, Attempts: session.attempts[field]}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID: logger.Ptr(session.RunID),
		Field: logger.Ptr(string(field)),
		Stage: logger.Ptr("followup"),
	})

	text, err := r.provider.Followup(ctx, field, session.Fields.Clone())
	if err != nil {
		session.state = StateFailed
		return nil, err
	}

	session.attempts[field]++
	session.pending = &Question{Field: field, Text: text}
	session.state = StateAwaitingAnswer

	slog.DebugContext(ctx, "follow-up issued", "attempt", session.attempts[field])
	return session.pending, nil
}

// Answer resumes the session with the answer to the pending question. All
// fields are re-classified afterward, so an answer that regressed an
// unrelated field re-enqueues it automatically.
func (r *Resolver) Answer(ctx context.Context, session *Session, answer string) error {
	if session.state != StateAwaitingAnswer || session.pending == nil {
		return fmt.Errorf("resolve: no question awaiting an answer")
	}

	question := *session.pending
	session.pending = nil
	session.History = append(session.History, model.Exchange{
		Field:    question.Field,
		Question: question.Text,
		Answer:   answer,
	})

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID: logger.Ptr(session.RunID),
		Field: logger.Ptr(string(question.Field)),
		Stage: logger.Ptr("extract"),
	})

	updated, err := r.provider.ExtractAnswer(ctx, question.Field, answer, session.Fields.Clone())
	if err != nil {
		session.state = StateFailed
		return err
	}
	if err := checkKeys(updated); err != nil {
		session.state = StateFailed
		return &specerr.SchemaInvalidError{Stage: specerr.StageExtract, Field: question.Field, Err: err}
	}

	// New candidates replace old ones wholesale; untouched fields keep
	// their previous candidate.
	next := session.Fields.Clone()
	maps.Copy(next, updated)
	session.Fields = next

	r.settle(session)

	slog.DebugContext(ctx, "answer absorbed",
		"updated_fields", len(updated),
		"unresolved", len(classify.Unresolved(session.Fields)),
		"state", session.state)
	return nil
}

// Abort terminates the session on external cancellation (end of input,
// explicit cancel). No partial document survives an aborted session.
func (r *Resolver) Abort(session *Session) error {
	session.pending = nil
	session.state = StateFailed
	return specerr.ErrSessionAborted
}

// Unresolved reports the fields still below acceptance, in declaration
// order. Used by non-interactive callers to fail instead of guessing.
func (r *Resolver) Unresolved(session *Session) []schema.FieldKey {
	return classify.Unresolved(session.Fields)
}

func (r *Resolver) settle(session *Session) {
	if len(classify.Unresolved(session.Fields)) == 0 {
		session.state = StateResolved
	} else {
		session.state = StateCollecting
	}
}

func checkKeys(fields model.FieldSet) error {
	for key := range fields {
		if !schema.Known(key) {
			return fmt.Errorf("provider returned unknown field %q", key)
		}
	}
	return nil
}
