package telemetry_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/internal/telemetry"
)

func readRecords(dir string) []map[string]any {
	entries, err := os.ReadDir(dir)
	Expect(err).NotTo(HaveOccurred())
	Expect(entries).To(HaveLen(1))
	Expect(entries[0].Name()).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}\.jsonl$`))

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		Expect(json.Unmarshal(scanner.Bytes(), &record)).To(Succeed())
		records = append(records, record)
	}
	Expect(scanner.Err()).NotTo(HaveOccurred())
	return records
}

var _ = Describe("JSONLSink", func() {
	var (
		dir  string
		sink *telemetry.JSONLSink
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "telemetry-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		sink = telemetry.NewJSONLSink(dir)
	})

	It("flushes the run summary followed by its buffered call records", func() {
		sink.LogCall(telemetry.CallRecord{
			RunID: 1, Stage: "extract", Model: "gpt-4o-mini",
			LatencyMS: 120, PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150,
			EstimatedCostUSD: 0.000045, SchemaValid: true,
		})
		sink.LogCall(telemetry.CallRecord{
			RunID: 1, Stage: "generate_followup", Model: "gpt-4o-mini",
			LatencyMS: 80, TotalTokens: 40, EstimatedCostUSD: 0.00001, SchemaValid: true,
		})
		sink.LogRun(telemetry.RunSummary{
			RunID: 1, Timestamp: time.Now().UTC(), Mode: "interactive",
			Result: "success", QuestionsAsked: 1,
		})

		records := readRecords(dir)
		Expect(records).To(HaveLen(3))

		summary := records[0]
		Expect(summary["type"]).To(Equal("run_summary"))
		Expect(summary["total_tokens"]).To(BeNumerically("==", 190))
		Expect(summary["total_latency_ms"]).To(BeNumerically("==", 200))
		Expect(summary["estimated_total_cost_usd"]).To(BeNumerically("~", 0.000055, 1e-9))

		Expect(records[1]["type"]).To(Equal("llm_call"))
		Expect(records[1]["stage"]).To(Equal("extract"))
		Expect(records[2]["stage"]).To(Equal("generate_followup"))
	})

	It("writes a summary with zero totals when no calls were logged", func() {
		sink.LogRun(telemetry.RunSummary{RunID: 2, Result: "error", ExitCode: 1})

		records := readRecords(dir)
		Expect(records).To(HaveLen(1))
		Expect(records[0]["total_tokens"]).To(BeNumerically("==", 0))
		Expect(records[0]["exit_code"]).To(BeNumerically("==", 1))
	})

	It("does not carry buffered calls across runs", func() {
		sink.LogCall(telemetry.CallRecord{RunID: 3, TotalTokens: 10})
		sink.LogRun(telemetry.RunSummary{RunID: 3, Result: "success"})
		sink.LogRun(telemetry.RunSummary{RunID: 4, Result: "success"})

		records := readRecords(dir)
		Expect(records).To(HaveLen(3))
		Expect(records[2]["type"]).To(Equal("run_summary"))
		Expect(records[2]["total_tokens"]).To(BeNumerically("==", 0))
	})
})

var _ = Describe("EstimateCostUSD", func() {
	It("prices known models per million tokens", func() {
		cost := telemetry.EstimateCostUSD("gpt-4o-mini", 1_000_000, 1_000_000)
		Expect(cost).To(BeNumerically("~", 0.75, 1e-9))
	})

	It("returns zero for unknown models", func() {
		Expect(telemetry.EstimateCostUSD("some-model", 1000, 1000)).To(BeZero())
	})
})
