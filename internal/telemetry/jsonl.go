package telemetry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONLSink appends records to a date-named JSONL file under dir. Call
// records are buffered in memory and flushed together with the run summary
// so a run's records stay contiguous in the file.
type JSONLSink struct {
	dir string

	mu    sync.Mutex
	calls []CallRecord
}

func NewJSONLSink(dir string) *JSONLSink {
	return &JSONLSink{dir: dir}
}

func (s *JSONLSink) LogCall(record CallRecord) {
	record.Type = "llm_call"
	s.mu.Lock()
	s.calls = append(s.calls, record)
	s.mu.Unlock()
}

func (s *JSONLSink) LogRun(summary RunSummary) {
	summary.Type = "run_summary"

	s.mu.Lock()
	calls := s.calls
	s.calls = nil
	s.mu.Unlock()

	for _, call := range calls {
		summary.TotalTokens += call.TotalTokens
		summary.EstimatedTotalCostUSD += call.EstimatedCostUSD
		summary.TotalLatencyMS += call.LatencyMS
	}

	entries := make([]any, 0, len(calls)+1)
	entries = append(entries, summary)
	for _, call := range calls {
		entries = append(entries, call)
	}
	s.append(entries)
}

func (s *JSONLSink) append(entries []any) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("telemetry sink unavailable", "dir", s.dir, "error", err)
		return
	}

	name := time.Now().UTC().Format("2006-01-02") + ".jsonl"
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("telemetry sink unavailable", "path", path, "error", err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			slog.Warn("telemetry write failed", "path", path, "error", err)
			return
		}
	}
}
