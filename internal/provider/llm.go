package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"specforge.app/specforge/common/llm"
	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/schema"
	"specforge.app/specforge/internal/specerr"
	"specforge.app/specforge/internal/telemetry"
)

// Default retry policy for schema-invalid or failed provider calls. One
// retry, then the error escalates to the caller.
const (
	defaultMaxRetries = 1
	defaultRetryDelay = 300 * time.Millisecond
)

// fieldPayload mirrors the per-field response contract: value, confidence
// in [0,1], short rationale.
type fieldPayload struct {
	Value      string  `json:"value" jsonschema_description:"Extracted field value, empty when no signal"`
	Confidence float64 `json:"confidence" jsonschema_description:"Confidence between 0 and 1"`
	Rationale  string  `json:"rationale" jsonschema_description:"Short justification"`
}

// extractionPayload is the structured response for extract and normalize
// calls. Field names match the schema keys one-to-one.
type extractionPayload struct {
	ProjectName fieldPayload `json:"project_name"`
	ProjectType fieldPayload `json:"project_type"`
	PrimaryGoal fieldPayload `json:"primary_goal"`
	TargetUsers fieldPayload `json:"target_users"`
	Inputs      fieldPayload `json:"inputs"`
	Outputs     fieldPayload `json:"outputs"`
	Constraints fieldPayload `json:"constraints"`
	NonGoals    fieldPayload `json:"non_goals"`
}

type followupPayload struct {
	Question string `json:"question" jsonschema_description:"One concise follow-up question"`
}

func (p extractionPayload) byKey() map[schema.FieldKey]fieldPayload {
	return map[schema.FieldKey]fieldPayload{
		schema.FieldProjectName: p.ProjectName,
		schema.FieldProjectType: p.ProjectType,
		schema.FieldPrimaryGoal: p.PrimaryGoal,
		schema.FieldTargetUsers: p.TargetUsers,
		schema.FieldInputs:      p.Inputs,
		schema.FieldOutputs:     p.Outputs,
		schema.FieldConstraints: p.Constraints,
		schema.FieldNonGoals:    p.NonGoals,
	}
}

// LLM is the inference-backed provider. Every response is validated
// against the field contract before the pipeline sees it; a response that
// fails validation surfaces as specerr.SchemaInvalidError after the retry
// budget is spent.
type LLM struct {
	client     llm.Client
	sink       telemetry.Sink
	runID      int64
	maxRetries int
	retryDelay time.Duration
}

type LLMOption func(*LLM)

func WithRetries(maxRetries int, delay time.Duration) LLMOption {
	return func(p *LLM) {
		p.maxRetries = maxRetries
		p.retryDelay = delay
	}
}

func NewLLM(client llm.Client, sink telemetry.Sink, runID int64, opts ...LLMOption) *LLM {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	p := &LLM{
		client:     client,
		sink:       sink,
		runID:      runID,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (*LLM) Name() string { return "llm" }

func (p *LLM) Extract(ctx context.Context, prompt string, history []model.Exchange) (model.FieldSet, error) {
	userPrompt := prompt
	if len(history) > 0 {
		answers, _ := json.Marshal(history)
		userPrompt = fmt.Sprintf("Prompt:\n%s\n\nPrior follow-up answers (JSON):\n%s", prompt, answers)
	}

	payload, err := p.callExtraction(ctx, "extract", specerr.StageExtract, extractSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	return payloadToFieldSet(payload), nil
}

func (p *LLM) ExtractAnswer(ctx context.Context, field schema.FieldKey, answer string, current model.FieldSet) (model.FieldSet, error) {
	def, _ := schema.Lookup(field)
	currentJSON, _ := json.Marshal(current)
	userPrompt := fmt.Sprintf(
		"The user answered a follow-up question about the %s field.\nAnswer: %s\n\nCurrent extracted fields (JSON):\n%s",
		def.Label, answer, currentJSON)

	payload, err := p.callExtraction(ctx, "extract_answer", specerr.StageExtract, answerSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	fields := payloadToFieldSet(payload)

	// The answer is authoritative for its own field. A provider that
	// returns low confidence for a direct, non-empty answer would loop
	// the resolver, so clamp the target the way answers are trusted.
	if c, ok := fields[field]; ok && c.Value != "" && field != schema.FieldProjectType {
		c.Confidence = 1.0
		c.Rationale = "interactive_user_answer"
		fields[field] = c
	}
	return fields, nil
}

func (p *LLM) Followup(ctx context.Context, field schema.FieldKey, current model.FieldSet) (string, error) {
	def, _ := schema.Lookup(field)
	currentJSON, _ := json.Marshal(current)
	userPrompt := fmt.Sprintf("Target field: %s\n\nExisting fields (JSON):\n%s", def.Label, currentJSON)

	var result followupPayload
	call := func(ctx context.Context) error {
		_, err := p.chat(ctx, "generate_followup", llm.Request{
			SystemPrompt: followupSystemPrompt,
			UserPrompt:   userPrompt,
			SchemaName:   "followup_question",
			Schema:       llm.GenerateSchema[followupPayload](),
			Temperature:  llm.Temp(0),
		}, &result)
		if err != nil {
			return err
		}
		if strings.TrimSpace(result.Question) == "" {
			return &specerr.SchemaInvalidError{Stage: specerr.StageFollowup, Field: field, Err: fmt.Errorf("empty question")}
		}
		if !strings.Contains(strings.ToLower(result.Question), strings.ToLower(def.Label)) {
			// A question that never names its target breaks the "which
			// answer resolves which field" guarantee; prefix it.
			result.Question = fmt.Sprintf("Regarding the %s: %s", def.Label, result.Question)
		}
		return nil
	}
	if err := p.withRetries(ctx, "generate_followup", call); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Question), nil
}

func (p *LLM) Normalize(ctx context.Context, values map[schema.FieldKey]string) (map[schema.FieldKey]string, error) {
	valuesJSON, _ := json.Marshal(values)

	payload, err := p.callExtraction(ctx, "normalize", specerr.StageNormalize, normalizeSystemPrompt, string(valuesJSON))
	if err != nil {
		return nil, err
	}

	out := make(map[schema.FieldKey]string, len(values))
	for key, fp := range payload.byKey() {
		if _, ok := values[key]; ok {
			out[key] = strings.TrimSpace(fp.Value)
		}
	}
	return out, nil
}

func (p *LLM) callExtraction(ctx context.Context, stage string, errStage specerr.Stage, systemPrompt, userPrompt string) (extractionPayload, error) {
	var result extractionPayload
	call := func(ctx context.Context) error {
		_, err := p.chat(ctx, stage, llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			SchemaName:   "spec_fields",
			Schema:       llm.GenerateSchema[extractionPayload](),
			Temperature:  llm.Temp(0),
		}, &result)
		if err != nil {
			return err
		}
		if err := validatePayload(result); err != nil {
			return &specerr.SchemaInvalidError{Stage: errStage, Err: err}
		}
		return nil
	}
	if err := p.withRetries(ctx, stage, call); err != nil {
		return extractionPayload{}, err
	}
	return result, nil
}

// chat performs one provider call and emits its telemetry record.
func (p *LLM) chat(ctx context.Context, stage string, req llm.Request, result any) (*llm.Response, error) {
	start := time.Now()
	resp, err := p.client.Chat(ctx, req, result)
	latency := time.Since(start).Milliseconds()

	record := telemetry.CallRecord{
		RunID:       p.runID,
		Stage:       stage,
		Model:       p.client.Model(),
		LatencyMS:   latency,
		SchemaValid: err == nil,
	}
	if resp != nil {
		record.PromptTokens = resp.PromptTokens
		record.CompletionTokens = resp.CompletionTokens
		record.TotalTokens = resp.PromptTokens + resp.CompletionTokens
		record.EstimatedCostUSD = telemetry.EstimateCostUSD(p.client.Model(), resp.PromptTokens, resp.CompletionTokens)
	}
	p.sink.LogCall(record)

	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", stage, err)
	}
	return resp, nil
}

func (p *LLM) withRetries(ctx context.Context, stage string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			slog.WarnContext(ctx, "retrying provider call",
				"stage", stage, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func payloadToFieldSet(payload extractionPayload) model.FieldSet {
	fields := make(model.FieldSet)
	for key, fp := range payload.byKey() {
		value := strings.TrimSpace(fp.Value)
		if value == "" {
			continue
		}
		fields[key] = model.FieldCandidate{
			Value:      value,
			Confidence: fp.Confidence,
			Rationale:  strings.TrimSpace(fp.Rationale),
		}
	}
	return fields
}

func validatePayload(payload extractionPayload) error {
	for key, fp := range payload.byKey() {
		if fp.Confidence < 0 || fp.Confidence > 1 {
			return fmt.Errorf("field %q confidence %v out of range [0,1]", key, fp.Confidence)
		}
	}
	return nil
}

const extractSystemPrompt = `Extract the required specification fields from the user's prompt.
For every field return value, confidence between 0 and 1, and a short rationale.
Leave value empty when the prompt gives no signal for a field. Do not invent facts.
project_type must be one of: library, service, CLI tool, web app, backend API, frontend UI, full-stack app.`

const answerSystemPrompt = `Incorporate the user's follow-up answer into the extracted specification fields.
Update the target field from the answer; update other fields only when the answer explicitly mentions them.
Return every field with value, confidence between 0 and 1, and a short rationale. Do not invent facts.`

const followupSystemPrompt = `Generate one concise follow-up question asking for exactly one missing or ambiguous specification field.
The question must name the target field. No preamble. One sentence.`

const normalizeSystemPrompt = `Normalize the terminology and wording of the given specification fields for consistency.
Map synonyms to one canonical term, replace subjective qualifiers with falsifiable statements, and do not invent missing facts.
Return every field with its normalized value.`
