// Package classify turns extraction confidence into field status.
package classify

import (
	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/schema"
)

// Status is derived from a candidate's confidence, never stored.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusAmbiguous Status = "ambiguous"
	StatusMissing   Status = "missing"
)

// Confidence cutoffs. Ties resolve toward the better status so borderline
// fields are not re-asked.
const (
	AcceptedThreshold  = 0.80
	AmbiguousThreshold = 0.50
)

// Classify maps one candidate to its status. It is applied independently
// per field; there is no cross-field coupling. A candidate with an empty
// value is missing regardless of its confidence.
func Classify(candidate *model.FieldCandidate) Status {
	if candidate == nil || candidate.Value == "" {
		return StatusMissing
	}
	switch {
	case candidate.Confidence >= AcceptedThreshold:
		return StatusAccepted
	case candidate.Confidence >= AmbiguousThreshold:
		return StatusAmbiguous
	default:
		return StatusMissing
	}
}

// Of classifies the candidate for key within fields, treating an absent
// entry as missing.
func Of(fields model.FieldSet, key schema.FieldKey) Status {
	if c, ok := fields[key]; ok {
		return Classify(&c)
	}
	return StatusMissing
}

// Unresolved returns the keys whose status is not accepted, in schema
// declaration order.
func Unresolved(fields model.FieldSet) []schema.FieldKey {
	var out []schema.FieldKey
	for _, key := range schema.Keys() {
		if Of(fields, key) != StatusAccepted {
			out = append(out, key)
		}
	}
	return out
}
