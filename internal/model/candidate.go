package model

import (
	"maps"

	"specforge.app/specforge/internal/schema"
)

// FieldCandidate is a provisional value for one field from one extraction
// attempt. Candidates are replaced wholesale when new information arrives,
// never mutated in place, so a session's history stays auditable.
type FieldCandidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// FieldSet maps field keys to their current candidates. Absent entries are
// implicitly missing. Keys are always a subset of the fixed schema key set.
type FieldSet map[schema.FieldKey]FieldCandidate

// Clone returns a copy. Candidates are value types, so a shallow copy is a
// full copy.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	maps.Copy(out, fs)
	return out
}

// Values projects the candidate values, dropping confidence and rationale.
func (fs FieldSet) Values() map[schema.FieldKey]string {
	out := make(map[schema.FieldKey]string, len(fs))
	for key, c := range fs {
		out[key] = c.Value
	}
	return out
}

// Exchange records one asked follow-up question and the answer it received.
type Exchange struct {
	Field    schema.FieldKey `json:"field"`
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
}
