package resolve

import (
	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/schema"
)

// State is the resolver's position in its question loop.
type State string

const (
	StateCollecting     State = "collecting"
	StateAwaitingAnswer State = "awaiting_answer"
	StateResolved       State = "resolved"
	StateFailed         State = "failed"
)

// Question is one live follow-up. At most one exists per session.
type Question struct {
	Field schema.FieldKey
	Text  string
}

// Session is the mutable state of one generation run. It is created at run
// start, mutated only by the Resolver, and discarded at run end; nothing
// persists across runs.
type Session struct {
	RunID  int64
	Prompt string

	// Fields maps field keys to their current candidates. Absent entries
	// are implicitly missing. Candidates are replaced wholesale, never
	// edited, so the history of "what did we know when" stays intact.
	Fields model.FieldSet

	// History holds every asked question with its answer, in ask order.
	History []model.Exchange

	state    State
	pending  *Question
	attempts map[schema.FieldKey]int
}

// NewSession creates a session for one run.
func NewSession(runID int64, prompt string) *Session {
	return &Session{
		RunID:    runID,
		Prompt:   prompt,
		Fields:   make(model.FieldSet),
		state:    StateCollecting,
		attempts: make(map[schema.FieldKey]int),
	}
}

// State returns the current machine state.
func (s *Session) State() State {
	return s.state
}

// Pending returns the live question, or nil outside StateAwaitingAnswer.
func (s *Session) Pending() *Question {
	return s.pending
}

// Attempts returns how many follow-ups have been asked for field.
func (s *Session) Attempts(field schema.FieldKey) int {
	return s.attempts[field]
}

// QuestionsAsked returns the total number of follow-ups asked.
func (s *Session) QuestionsAsked() int {
	return len(s.History)
}
