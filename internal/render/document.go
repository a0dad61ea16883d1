// Package render maps a fully resolved, normalized field set onto the
// fixed ten-section document structure. Rendering is pure: identical input
// produces byte-identical output, with no timestamps and list content in
// schema declaration order.
package render

import (
	"fmt"
	"strings"

	"specforge.app/specforge/internal/schema"
)

// Document is the final immutable output of a run. It is only
// constructible from a field set in which every field is present, which
// the pipeline guarantees by requiring a resolved session.
type Document struct {
	fields  map[schema.FieldKey]string
	flagged []schema.FieldKey

	inScope     []string
	outOfScope  []string
	functional  []string
	nonFunc     []string
	assumptions []string
	acceptance  []string
}

// NewDocument derives all sections from the normalized values. flagged
// lists fields whose normalization fell back to the original wording; they
// surface as assumptions rather than silently disappearing.
func NewDocument(values map[schema.FieldKey]string, flagged []schema.FieldKey) (*Document, error) {
	for _, key := range schema.Keys() {
		if strings.TrimSpace(values[key]) == "" {
			return nil, fmt.Errorf("render: field %q missing from resolved values", key)
		}
	}

	d := &Document{
		fields:  make(map[schema.FieldKey]string, len(values)),
		flagged: flagged,
	}
	for _, key := range schema.Keys() {
		d.fields[key] = strings.TrimSpace(values[key])
	}

	d.inScope = splitToBullets(fmt.Sprintf(
		"Deliver core %s behavior aligned to goal: %s. Support primary user group: %s. Handle defined inputs and produce defined outputs",
		d.fields[schema.FieldProjectType],
		d.fields[schema.FieldPrimaryGoal],
		d.fields[schema.FieldTargetUsers]))
	d.outOfScope = splitToBullets(d.fields[schema.FieldNonGoals])
	d.functional = functionalRequirements(
		d.fields[schema.FieldInputs],
		d.fields[schema.FieldOutputs],
		d.fields[schema.FieldPrimaryGoal])
	d.nonFunc = nonFunctionalRequirements(d.fields[schema.FieldConstraints])
	d.assumptions = assumptions(d.flagged)
	d.acceptance = acceptanceCriteria(d.fields[schema.FieldProjectName], d.functional)

	return d, nil
}

// Field returns one normalized field value.
func (d *Document) Field(key schema.FieldKey) string {
	return d.fields[key]
}

// splitToBullets breaks a comma- or semicolon-separated value into list
// items, preserving the original item order.
func splitToBullets(value string) []string {
	var items []string
	for _, part := range strings.Split(strings.ReplaceAll(value, ";", ","), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return []string{"None specified."}
	}
	return items
}

func functionalRequirements(inputs, outputs, goal string) []string {
	return []string{
		fmt.Sprintf("The system SHALL accept and validate the defined inputs: %s.", inputs),
		fmt.Sprintf("The system SHALL produce outputs in the defined format: %s.", outputs),
		fmt.Sprintf("The system SHALL implement behavior that directly supports this goal: %s.", goal),
		"The system SHALL return deterministic results for identical valid inputs.",
	}
}

// nfrCategories pairs each category with the constraint keywords that
// populate it. Only categories with matching content are emitted.
var nfrCategories = []struct {
	tokens    []string
	statement string
}{
	{[]string{"performance", "latency", "throughput", "fast"},
		"Performance: Must satisfy declared performance expectations."},
	{[]string{"reliable", "availability", "uptime", "fault"},
		"Reliability: Must handle errors predictably and recover safely."},
	{[]string{"security", "auth", "encryption", "privacy"},
		"Security: Must enforce relevant security controls and data protections."},
	{[]string{"maintain", "readable", "modular", "test"},
		"Maintainability: Code and interfaces must remain testable and maintainable."},
}

func nonFunctionalRequirements(constraints string) []string {
	lowered := strings.ToLower(constraints)
	var items []string
	for _, category := range nfrCategories {
		for _, token := range category.tokens {
			if strings.Contains(lowered, token) {
				items = append(items, category.statement)
				break
			}
		}
	}
	if len(items) == 0 {
		items = append(items, "Maintainability: Implementation must remain testable and readable.")
	}
	return items
}

func assumptions(flagged []schema.FieldKey) []string {
	items := []string{
		"User-provided answers are accurate and complete at generation time.",
		"Requirements may require refinement if domain constraints change.",
	}
	for _, key := range flagged {
		def, _ := schema.Lookup(key)
		items = append(items, fmt.Sprintf(
			"The %s value retains its original wording; it could not be canonicalized.", def.Label))
	}
	return items
}

func acceptanceCriteria(projectName string, functional []string) []string {
	items := make([]string, 0, len(functional)+1)
	for i, requirement := range functional {
		items = append(items, fmt.Sprintf(
			"`%s` demonstrably satisfies functional requirement %d: %s", projectName, i+1, requirement))
	}
	items = append(items, "The specification follows the mandated section order and headings.")
	return items
}
