// Package specerr defines the error taxonomy shared by the pipeline stages
// and the CLI/HTTP boundaries. Every escalated error names the stage that
// failed and, when field-scoped, the offending field.
package specerr

import (
	"errors"
	"fmt"
	"strings"

	"specforge.app/specforge/internal/schema"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageFollowup  Stage = "followup"
	StageResolve   Stage = "resolve"
	StageNormalize Stage = "normalize"
	StageRender    Stage = "render"
)

// ErrInvalidInput marks malformed caller input (empty prompt, bad flags).
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionAborted marks an external actor cancelling mid-resolution.
var ErrSessionAborted = errors.New("session aborted")

// SchemaInvalidError reports a provider response that failed structural
// validation. It is recovered locally by the bounded retry and only
// escalates once the retry cap is exhausted.
type SchemaInvalidError struct {
	Stage Stage
	Field schema.FieldKey // empty when not field-scoped
	Err   error
}

func (e *SchemaInvalidError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: schema-invalid provider response for field %q: %v", e.Stage, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: schema-invalid provider response: %v", e.Stage, e.Err)
}

func (e *SchemaInvalidError) Unwrap() error { return e.Err }

// MissingFieldsError reports fields left unresolved when no follow-up
// opportunity exists. Fields are in schema declaration order.
type MissingFieldsError struct {
	Fields []schema.FieldKey
}

func (e *MissingFieldsError) Error() string {
	labels := make([]string, len(e.Fields))
	for i, key := range e.Fields {
		def, _ := schema.Lookup(key)
		labels[i] = def.Label
	}
	return fmt.Sprintf("resolve: missing required information: %s", strings.Join(labels, ", "))
}

// UnresolvableFieldError reports a field that stayed unresolved after the
// re-ask cap was exhausted.
type UnresolvableFieldError struct {
	Field    schema.FieldKey
	Attempts int
}

func (e *UnresolvableFieldError) Error() string {
	def, _ := schema.Lookup(e.Field)
	return fmt.Sprintf("resolve: field %q unresolvable after %d follow-up attempts", def.Label, e.Attempts)
}

// Exit codes for the CLI boundary.
const (
	ExitOK            = 0
	ExitMissingFields = 1
	ExitInvalidInput  = 2
	ExitInternal      = 3
)

// ExitCode maps an error to the CLI exit code contract.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidInput):
		return ExitInvalidInput
	default:
		var missing *MissingFieldsError
		if errors.As(err, &missing) {
			return ExitMissingFields
		}
		return ExitInternal
	}
}
