package render

import (
	"encoding/json"

	"specforge.app/specforge/internal/schema"
)

// JSONDocument mirrors the markdown structure one-to-one: struct field
// order matches section order, keys match section names.
type JSONDocument struct {
	Overview                  JSONOverview `json:"overview"`
	ProblemStatement          string       `json:"problem_statement"`
	Scope                     JSONScope    `json:"scope"`
	FunctionalRequirements    []string     `json:"functional_requirements"`
	NonFunctionalRequirements []string     `json:"non_functional_requirements"`
	Inputs                    string       `json:"inputs"`
	Outputs                   string       `json:"outputs"`
	Constraints               string       `json:"constraints"`
	Assumptions               []string     `json:"assumptions"`
	AcceptanceCriteria        []string     `json:"acceptance_criteria"`
}

type JSONOverview struct {
	ProjectName string `json:"project_name"`
	ProjectType string `json:"project_type"`
	PrimaryGoal string `json:"primary_goal"`
	TargetUsers string `json:"target_users"`
}

type JSONScope struct {
	InScope    []string `json:"in_scope"`
	OutOfScope []string `json:"out_of_scope"`
}

// Structured returns the document as the JSON-mode structure.
func (d *Document) Structured() JSONDocument {
	return JSONDocument{
		Overview: JSONOverview{
			ProjectName: d.fields[schema.FieldProjectName],
			ProjectType: d.fields[schema.FieldProjectType],
			PrimaryGoal: d.fields[schema.FieldPrimaryGoal],
			TargetUsers: d.fields[schema.FieldTargetUsers],
		},
		ProblemStatement:          d.fields[schema.FieldPrimaryGoal],
		Scope:                     JSONScope{InScope: d.inScope, OutOfScope: d.outOfScope},
		FunctionalRequirements:    d.functional,
		NonFunctionalRequirements: d.nonFunc,
		Inputs:                    d.fields[schema.FieldInputs],
		Outputs:                   d.fields[schema.FieldOutputs],
		Constraints:               d.fields[schema.FieldConstraints],
		Assumptions:               d.assumptions,
		AcceptanceCriteria:        d.acceptance,
	}
}

// JSON renders the structured form with stable two-space indentation.
func (d *Document) JSON() (string, error) {
	out, err := json.MarshalIndent(d.Structured(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
