// Package normalize canonicalizes resolved field values before rendering:
// controlled-vocabulary terminology, subjective qualifiers rewritten or
// dropped, synonyms collapsed consistently across the whole document.
// Identical resolved input always yields identical normalized output.
package normalize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/provider"
	"specforge.app/specforge/internal/schema"
)

// Result carries the canonical values plus the fields whose provider
// normalization failed structural validation and passed through with their
// pre-normalization value. A required field is never dropped.
type Result struct {
	Values  map[schema.FieldKey]string
	Flagged []schema.FieldKey
}

// rewrite maps one matched phrase to its canonical replacement. Rules are
// applied in order, so canonical spellings must come first in their own
// alternation to stay fixed points (normalizing twice changes nothing).
type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// vocabulary collapses synonyms onto one canonical term.
var vocabulary = []rewrite{
	{regexp.MustCompile(`(?i)\bend[- ]users\b|\bpeople using it\b|\bfolks\b`), "end users"},
	{regexp.MustCompile(`(?i)\bdevs\b|\bsoftware engineers\b`), "developers"},
	{regexp.MustCompile(`(?i)\bcommand[- ]line interface\b`), "CLI"},
	{regexp.MustCompile(`(?i)\bconfig files\b|\bconfiguration file\b`), "configuration files"},
}

// subjective rewrites vague qualifiers into falsifiable phrasing or drops
// pure intensifiers.
var subjective = []rewrite{
	{regexp.MustCompile(`(?i)\b(?:blazingly|very|really|extremely|super)\s+`), ""},
	{regexp.MustCompile(`(?i)\bfast\b`), "within the stated performance constraints"},
	{regexp.MustCompile(`(?i)\buser[- ]friendly\b|\beasy to use\b`), "usable without documentation for the primary workflow"},
	{regexp.MustCompile(`(?i)\bgood\s+`), ""},
	{regexp.MustCompile(`(?i)\bsimple\s+`), ""},
}

var whitespace = regexp.MustCompile(`\s+`)

type Normalizer struct {
	provider provider.Provider
}

func New(p provider.Provider) *Normalizer {
	return &Normalizer{provider: p}
}

// Normalize canonicalizes a fully resolved field set. It never fails: a
// provider result that is structurally invalid falls back per field to the
// pre-normalization value, flagged in the result.
func (n *Normalizer) Normalize(ctx context.Context, fields model.FieldSet) *Result {
	original := fields.Values()

	values, flagged := n.providerPass(ctx, original)

	// The deterministic vocabulary pass runs last so the final document
	// uses one canonical term regardless of what the provider returned.
	for key, value := range values {
		values[key] = canonicalize(key, value)
	}

	return &Result{Values: values, Flagged: flagged}
}

// providerPass asks the provider for canonical wording and validates the
// result field by field.
func (n *Normalizer) providerPass(ctx context.Context, original map[schema.FieldKey]string) (map[schema.FieldKey]string, []schema.FieldKey) {
	values := make(map[schema.FieldKey]string, len(original))
	for key, value := range original {
		values[key] = value
	}

	normalized, err := n.provider.Normalize(ctx, original)
	if err != nil {
		slog.WarnContext(ctx, "provider normalization failed, passing values through",
			"error", err)
		return values, keysInOrder(original)
	}

	var flagged []schema.FieldKey
	for _, key := range schema.Keys() {
		originalValue, required := original[key]
		if !required {
			continue
		}
		candidate, ok := normalized[key]
		if !ok || !structurallyValid(key, strings.TrimSpace(candidate)) {
			slog.WarnContext(ctx, "normalized value structurally invalid, keeping original",
				"field", string(key))
			values[key] = originalValue
			flagged = append(flagged, key)
			continue
		}
		values[key] = strings.TrimSpace(candidate)
	}
	return values, flagged
}

// structurallyValid checks a provider-normalized value. Enum spelling is
// checked case-insensitively here because the canonical-spelling rewrite
// runs after this pass.
func structurallyValid(key schema.FieldKey, value string) bool {
	if value == "" {
		return false
	}
	if key == schema.FieldProjectType {
		_, ok := schema.CanonicalProjectType(value)
		return ok
	}
	return schema.ValidateValue(key, value) == nil
}

func canonicalize(key schema.FieldKey, value string) string {
	if key == schema.FieldProjectType {
		// Closed enum: canonical spelling only, no prose rewriting.
		if canonical, ok := schema.CanonicalProjectType(strings.TrimSpace(value)); ok {
			return canonical
		}
		return strings.TrimSpace(value)
	}

	out := value
	for _, rule := range vocabulary {
		out = rule.pattern.ReplaceAllString(out, rule.replacement)
	}
	for _, rule := range subjective {
		out = rule.pattern.ReplaceAllString(out, rule.replacement)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
}

func keysInOrder(values map[schema.FieldKey]string) []schema.FieldKey {
	var keys []schema.FieldKey
	for _, key := range schema.Keys() {
		if _, ok := values[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}
