// Package telemetry emits per-run JSONL records: one run_summary per
// generation run plus one llm_call record per provider call. The sink is
// fire-and-forget; the pipeline never depends on it succeeding.
package telemetry

import "time"

// CallRecord describes one provider call.
type CallRecord struct {
	Type             string  `json:"type"` // always "llm_call"
	RunID            int64   `json:"run_id"`
	Stage            string  `json:"stage"`
	Model            string  `json:"model"`
	LatencyMS        int64   `json:"latency_ms"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	RetryCount       int     `json:"retry_count"`
	SchemaValid      bool    `json:"schema_valid"`
}

// RunSummary describes one generation run.
type RunSummary struct {
	Type                  string    `json:"type"` // always "run_summary"
	RunID                 int64     `json:"run_id"`
	Timestamp             time.Time `json:"timestamp"`
	Mode                  string    `json:"mode"`
	OutputPath            string    `json:"output_path"`
	Result                string    `json:"result"` // "success" or "error"
	ExitCode              int       `json:"exit_code"`
	QuestionsAsked        int       `json:"questions_asked"`
	TotalTokens           int       `json:"total_tokens"`
	EstimatedTotalCostUSD float64   `json:"estimated_total_cost_usd"`
	TotalLatencyMS        int64     `json:"total_latency_ms"`
}

// Sink receives telemetry records. Implementations must not block the
// pipeline and must swallow their own errors.
type Sink interface {
	LogCall(record CallRecord)
	LogRun(summary RunSummary)
}

// Nop is a Sink that discards everything.
type Nop struct{}

func (Nop) LogCall(CallRecord) {}
func (Nop) LogRun(RunSummary)  {}

// perMillion holds USD prices per million input/output tokens.
type perMillion struct {
	input  float64
	output float64
}

var pricingByModel = map[string]perMillion{
	"gpt-5-mini":         {input: 0.25, output: 2.0},
	"gpt-4o-mini":        {input: 0.15, output: 0.60},
	"openai/gpt-4o-mini": {input: 0.15, output: 0.60},
	"claude-sonnet-4-5":  {input: 3.0, output: 15.0},
	"claude-haiku-4-5":   {input: 1.0, output: 5.0},
}

// EstimateCostUSD estimates the cost of one call. Unknown models cost zero
// rather than guessing.
func EstimateCostUSD(model string, promptTokens, completionTokens int) float64 {
	pricing, ok := pricingByModel[model]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1_000_000*pricing.input +
		float64(completionTokens)/1_000_000*pricing.output
}
