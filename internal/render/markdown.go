package render

import (
	"fmt"
	"strings"

	"specforge.app/specforge/internal/schema"
)

// Markdown renders the ten fixed sections in fixed order with fixed
// headings, regardless of field content.
func (d *Document) Markdown() string {
	var b strings.Builder

	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	bullets := func(items []string) {
		for _, item := range items {
			line("- " + item)
		}
	}

	line("# Project Specification")
	line("")
	line("## 1. Overview")
	line("- Project Name: " + d.fields[schema.FieldProjectName])
	line("- Project Type: " + d.fields[schema.FieldProjectType])
	line("- Primary Goal: " + d.fields[schema.FieldPrimaryGoal])
	line("- Target Users: " + d.fields[schema.FieldTargetUsers])
	line("")
	line("## 2. Problem Statement")
	line(fmt.Sprintf("- The current workflow does not reliably satisfy this objective: %s.", d.fields[schema.FieldPrimaryGoal]))
	line("")
	line("## 3. Scope")
	line("### In Scope")
	bullets(d.inScope)
	line("")
	line("### Out of Scope")
	bullets(d.outOfScope)
	line("")
	line("## 4. Functional Requirements")
	for i, item := range d.functional {
		line(fmt.Sprintf("%d. %s", i+1, item))
	}
	line("")
	line("## 5. Non-Functional Requirements")
	bullets(d.nonFunc)
	line("")
	line("## 6. Inputs")
	line("- " + d.fields[schema.FieldInputs])
	line("")
	line("## 7. Outputs")
	line("- " + d.fields[schema.FieldOutputs])
	line("")
	line("## 8. Constraints")
	line("- " + d.fields[schema.FieldConstraints])
	line("")
	line("## 9. Assumptions")
	bullets(d.assumptions)
	line("")
	line("## 10. Acceptance Criteria")
	bullets(d.acceptance)

	return b.String()
}
