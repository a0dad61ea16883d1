package render

import (
	"fmt"
	"regexp"
	"strings"
)

// ExpectedHeadings is the strict heading sequence of a rendered document.
var ExpectedHeadings = []string{
	"# Project Specification",
	"## 1. Overview",
	"## 2. Problem Statement",
	"## 3. Scope",
	"### In Scope",
	"### Out of Scope",
	"## 4. Functional Requirements",
	"## 5. Non-Functional Requirements",
	"## 6. Inputs",
	"## 7. Outputs",
	"## 8. Constraints",
	"## 9. Assumptions",
	"## 10. Acceptance Criteria",
}

var allowedLinePrefix = regexp.MustCompile(`^(#|-\s|\d+\.\s)`)

// Validate checks a rendered markdown document against the strict
// structure: exact heading order and list-only prose. It returns one
// message per violation; an empty slice means the document conforms.
func Validate(content string) []string {
	var errs []string
	lines := strings.Split(content, "\n")

	firstNonEmpty := ""
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstNonEmpty = trimmed
			break
		}
	}
	if firstNonEmpty != "# Project Specification" {
		errs = append(errs, "first non-empty line must be '# Project Specification'")
	}

	var headings []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "#") {
			headings = append(headings, trimmed)
		}
	}
	if !equalStrings(headings, ExpectedHeadings) {
		errs = append(errs, "headings must match the strict required structure and ordering")
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !allowedLinePrefix.MatchString(line) {
			errs = append(errs, fmt.Sprintf("line %d contains non-list prose or unsupported formatting: %s", i+1, line))
		}
	}

	return errs
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
