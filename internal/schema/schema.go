// Package schema defines the fixed set of required specification fields.
// The field set and its declaration order are static for the lifetime of
// the process; every other pipeline stage keys off this package.
package schema

import (
	"fmt"
	"strings"
)

// FieldKey identifies one of the eight required specification fields.
type FieldKey string

const (
	FieldProjectName FieldKey = "project_name"
	FieldProjectType FieldKey = "project_type"
	FieldPrimaryGoal FieldKey = "primary_goal"
	FieldTargetUsers FieldKey = "target_users"
	FieldInputs      FieldKey = "inputs"
	FieldOutputs     FieldKey = "outputs"
	FieldConstraints FieldKey = "constraints"
	FieldNonGoals    FieldKey = "non_goals"
)

// DomainKind distinguishes free-text fields from closed-enumeration fields.
type DomainKind string

const (
	DomainFreeText   DomainKind = "free_text"
	DomainClosedEnum DomainKind = "closed_enum"
)

// FieldDefinition describes one required field. All eight fields are
// required; optional fields do not exist in this schema.
type FieldDefinition struct {
	Key    FieldKey
	Label  string // human-readable name used in questions and errors
	Domain DomainKind
	Enum   []string // allowed values when Domain is DomainClosedEnum
}

// ProjectTypes is the closed value domain for the project_type field.
var ProjectTypes = []string{
	"library",
	"service",
	"CLI tool",
	"web app",
	"backend API",
	"frontend UI",
	"full-stack app",
}

// fields holds the schema in declaration order. The Gap Resolver asks
// follow-ups in exactly this order, and the Renderer emits list content in
// exactly this order, so the slice order is load-bearing.
var fields = []FieldDefinition{
	{Key: FieldProjectName, Label: "project name", Domain: DomainFreeText},
	{Key: FieldProjectType, Label: "project type", Domain: DomainClosedEnum, Enum: ProjectTypes},
	{Key: FieldPrimaryGoal, Label: "primary goal", Domain: DomainFreeText},
	{Key: FieldTargetUsers, Label: "target users", Domain: DomainFreeText},
	{Key: FieldInputs, Label: "inputs", Domain: DomainFreeText},
	{Key: FieldOutputs, Label: "outputs", Domain: DomainFreeText},
	{Key: FieldConstraints, Label: "constraints", Domain: DomainFreeText},
	{Key: FieldNonGoals, Label: "non-goals", Domain: DomainFreeText},
}

var byKey = func() map[FieldKey]FieldDefinition {
	m := make(map[FieldKey]FieldDefinition, len(fields))
	for _, f := range fields {
		m[f.Key] = f
	}
	return m
}()

// Fields returns the field definitions in declaration order. Callers must
// not mutate the returned slice.
func Fields() []FieldDefinition {
	return fields
}

// Keys returns the field keys in declaration order.
func Keys() []FieldKey {
	keys := make([]FieldKey, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// Lookup returns the definition for key, or false for an unknown key.
func Lookup(key FieldKey) (FieldDefinition, bool) {
	def, ok := byKey[key]
	return def, ok
}

// Known reports whether key belongs to the fixed schema.
func Known(key FieldKey) bool {
	_, ok := byKey[key]
	return ok
}

// ValidateValue checks a value against the field's domain. Free-text fields
// accept any non-empty value; closed-enum fields require an exact enum
// member (canonicalization of near-matches is the Normalizer's job).
func ValidateValue(key FieldKey, value string) error {
	def, ok := byKey[key]
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}
	if value == "" {
		return fmt.Errorf("field %q has empty value", key)
	}
	if def.Domain == DomainClosedEnum {
		for _, allowed := range def.Enum {
			if value == allowed {
				return nil
			}
		}
		return fmt.Errorf("field %q value %q not in allowed domain", key, value)
	}
	return nil
}

// CanonicalProjectType matches a value against the project type enum,
// ignoring case, and returns the canonical spelling.
func CanonicalProjectType(value string) (string, bool) {
	for _, pt := range ProjectTypes {
		if strings.EqualFold(value, pt) {
			return pt, true
		}
	}
	return "", false
}
