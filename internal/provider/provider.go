// Package provider defines the inference boundary the pipeline consumes
// and its two implementations: deterministic local heuristics and an
// LLM-backed provider with schema-validated structured output.
package provider

import (
	"context"

	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/schema"
)

// Provider supplies the three capabilities the pipeline draws on. Every
// returned candidate set is a fresh value; implementations never mutate
// their inputs.
type Provider interface {
	// Extract produces a candidate for every field it can infer anything
	// about from the prompt. Fields without signal are absent from the
	// result. Must be idempotent for identical prompt and history.
	Extract(ctx context.Context, prompt string, history []model.Exchange) (model.FieldSet, error)

	// ExtractAnswer incorporates one follow-up answer, scoped to field.
	// The result may carry candidates for other fields when the answer
	// mentions them; the resolver re-classifies everything afterward.
	ExtractAnswer(ctx context.Context, field schema.FieldKey, answer string, current model.FieldSet) (model.FieldSet, error)

	// Followup generates one question asking for exactly one piece of
	// information, explicitly referencing the target field.
	Followup(ctx context.Context, field schema.FieldKey, current model.FieldSet) (string, error)

	// Normalize rewrites resolved values into canonical terminology.
	// Implementations may return the input unchanged.
	Normalize(ctx context.Context, values map[schema.FieldKey]string) (map[schema.FieldKey]string, error)

	// Name identifies the provider in telemetry and run records.
	Name() string
}
