package provider

import (
	"context"
	"regexp"
	"strings"

	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/schema"
)

// Extraction confidences for the local heuristics. An explicit "label:"
// line is near-certain; inferences degrade from there.
const (
	confExplicitLabel = 0.95
	confTypeKeyword   = 0.70
	confTitleName     = 0.55
	confGoalFallback  = 0.40
	confEnumMismatch  = 0.40
)

var labelPatterns = map[schema.FieldKey]*regexp.Regexp{
	schema.FieldProjectName: regexp.MustCompile(`(?i)(?:project\s*name|name)\s*:\s*(.+)`),
	schema.FieldProjectType: regexp.MustCompile(`(?i)(?:project\s*type|type)\s*:\s*(.+)`),
	schema.FieldPrimaryGoal: regexp.MustCompile(`(?i)(?:primary\s*goal|goal)\s*:\s*(.+)`),
	schema.FieldTargetUsers: regexp.MustCompile(`(?i)(?:target\s*users|users)\s*:\s*(.+)`),
	schema.FieldInputs:      regexp.MustCompile(`(?i)(?:inputs?)\s*:\s*(.+)`),
	schema.FieldOutputs:     regexp.MustCompile(`(?i)(?:outputs?)\s*:\s*(.+)`),
	schema.FieldConstraints: regexp.MustCompile(`(?i)(?:constraints?)\s*:\s*(.+)`),
	schema.FieldNonGoals:    regexp.MustCompile(`(?i)(?:non[-\s]*goals?)\s*:\s*(.+)`),
}

// typeKeywords maps project types to trigger terms, checked in order. The
// first matching type wins, so more specific types precede generic ones.
// Terms match on word boundaries; substring matching would false-positive
// on words like "build" containing "ui".
var typeKeywords = []struct {
	projectType string
	pattern     *regexp.Regexp
}{
	{"full-stack app", regexp.MustCompile(`(?i)\bfull[- ]stack\b|\bfrontend and backend\b`)},
	{"backend API", regexp.MustCompile(`(?i)\bapi\b|\bendpoints?\b|\brest\b|\bgraphql\b`)},
	{"frontend UI", regexp.MustCompile(`(?i)\bfrontend\b|\bui\b|\bsingle[- ]page\b|\bspa\b`)},
	{"web app", regexp.MustCompile(`(?i)\bweb\s?app\b|\bwebsite\b|\bbrowser\b`)},
	{"CLI tool", regexp.MustCompile(`(?i)\bcli\b|\bcommand[- ]line\b|\bterminal\b`)},
	{"service", regexp.MustCompile(`(?i)\bservice\b|\bdaemon\b|\bworker\b`)},
	{"library", regexp.MustCompile(`(?i)\blibrary\b|\bsdk\b|\bpackage\b`)},
}

var followupQuestions = map[schema.FieldKey]string{
	schema.FieldProjectName: "What is the project name?",
	schema.FieldProjectType: "What is the project type? (library, service, CLI tool, web app, backend API, frontend UI, full-stack app)",
	schema.FieldPrimaryGoal: "What is the primary goal in one sentence?",
	schema.FieldTargetUsers: "Who are the target users?",
	schema.FieldInputs:      "What inputs does the system receive?",
	schema.FieldOutputs:     "What outputs does the system produce?",
	schema.FieldConstraints: "What constraints must be followed? (language/runtime/performance/security/platform)",
	schema.FieldNonGoals:    "What is explicitly out of scope (non-goals)?",
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9\-]+`)

// Local extracts fields with deterministic heuristics and needs no network
// or credentials. It is the default provider.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (*Local) Name() string { return "local" }

func (p *Local) Extract(_ context.Context, prompt string, _ []model.Exchange) (model.FieldSet, error) {
	fields := make(model.FieldSet)

	var lines []string
	for _, line := range strings.Split(prompt, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	joined := strings.Join(lines, " ")

	for _, key := range schema.Keys() {
		if value := matchLabel(lines, labelPatterns[key]); value != "" {
			fields[key] = model.FieldCandidate{Value: value, Confidence: confExplicitLabel, Rationale: "explicit_label"}
		}
	}

	if _, ok := fields[schema.FieldProjectType]; !ok {
		if inferred := inferProjectType(joined); inferred != "" {
			fields[schema.FieldProjectType] = model.FieldCandidate{Value: inferred, Confidence: confTypeKeyword, Rationale: "keyword_inference"}
		}
	}

	if _, ok := fields[schema.FieldProjectName]; !ok {
		if name := inferProjectName(joined); name != "" {
			fields[schema.FieldProjectName] = model.FieldCandidate{Value: name, Confidence: confTitleName, Rationale: "title_inference"}
		}
	}

	if _, ok := fields[schema.FieldPrimaryGoal]; !ok && joined != "" {
		excerpt := joined
		if len(excerpt) > 220 {
			excerpt = excerpt[:220]
		}
		fields[schema.FieldPrimaryGoal] = model.FieldCandidate{Value: excerpt, Confidence: confGoalFallback, Rationale: "fallback_prompt_excerpt"}
	}

	return fields, nil
}

func (p *Local) ExtractAnswer(_ context.Context, field schema.FieldKey, answer string, _ model.FieldSet) (model.FieldSet, error) {
	fields := make(model.FieldSet)

	// An answer can carry explicit labels for other fields; pick those up
	// before applying the target-field rule so the target rule wins for
	// its own field.
	lines := []string{strings.TrimSpace(answer)}
	for key, pattern := range labelPatterns {
		if key == field {
			continue
		}
		if value := matchLabel(lines, pattern); value != "" {
			fields[key] = model.FieldCandidate{Value: value, Confidence: confExplicitLabel, Rationale: "explicit_label"}
		}
	}

	cleaned := strings.Join(strings.Fields(answer), " ")
	if cleaned == "" {
		return fields, nil
	}

	candidate := model.FieldCandidate{Value: cleaned, Confidence: 1.0, Rationale: "interactive_user_answer"}
	if field == schema.FieldProjectType {
		if canonical, ok := schema.CanonicalProjectType(cleaned); ok {
			candidate.Value = canonical
		} else {
			candidate.Confidence = confEnumMismatch
		}
	}
	fields[field] = candidate

	return fields, nil
}

func (p *Local) Followup(_ context.Context, field schema.FieldKey, _ model.FieldSet) (string, error) {
	return followupQuestions[field], nil
}

// Normalize is the identity for the local provider; the deterministic
// vocabulary pass lives in the normalize package.
func (p *Local) Normalize(_ context.Context, values map[schema.FieldKey]string) (map[schema.FieldKey]string, error) {
	return values, nil
}

func matchLabel(lines []string, pattern *regexp.Regexp) string {
	for _, line := range lines {
		if m := pattern.FindStringSubmatch(line); m != nil {
			return strings.TrimRight(strings.TrimSpace(m[1]), ".")
		}
	}
	return ""
}

func inferProjectType(text string) string {
	for _, check := range typeKeywords {
		if check.pattern.MatchString(text) {
			return check.projectType
		}
	}
	return ""
}

func inferProjectName(text string) string {
	words := wordPattern.FindAllString(text, 4)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
