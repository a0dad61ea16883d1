package telemetry

import "sync"

// Counting wraps a Sink and accumulates per-call usage so a boundary can
// read the run's totals (for the run-history store) without re-reading
// the JSONL stream.
type Counting struct {
	next Sink

	mu        sync.Mutex
	tokens    int
	costUSD   float64
	latencyMS int64
}

func NewCounting(next Sink) *Counting {
	return &Counting{next: next}
}

func (c *Counting) LogCall(record CallRecord) {
	c.mu.Lock()
	c.tokens += record.TotalTokens
	c.costUSD += record.EstimatedCostUSD
	c.latencyMS += record.LatencyMS
	c.mu.Unlock()
	c.next.LogCall(record)
}

func (c *Counting) LogRun(summary RunSummary) {
	c.next.LogRun(summary)
}

// Totals returns the accumulated token count, estimated cost and latency
// across all calls logged so far.
func (c *Counting) Totals() (tokens int, costUSD float64, latencyMS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens, c.costUSD, c.latencyMS
}
