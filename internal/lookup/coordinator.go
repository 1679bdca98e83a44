package lookup

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/metrics"
	"github.com/eysrewards/kiosk/internal/model"
)

// Result is the display state of one lookup. Failed results carry no
// stats at all; zero values appear only inside a successful result, for
// fields the ledger genuinely omitted.
type Result struct {
	Code   string
	Stats  model.CandidateStats
	Failed bool
}

// StatsReader is the read half of the ledger client.
type StatsReader interface {
	Lookup(ctx context.Context, code string) (model.CandidateStats, error)
}

// Coordinator runs one read transaction against the ledger.
type Coordinator struct {
	ledger StatsReader
	logger *zap.Logger
}

// NewCoordinator wires a lookup coordinator.
func NewCoordinator(ledger StatsReader, logger *zap.Logger) *Coordinator {
	return &Coordinator{ledger: ledger, logger: logger}
}

// Query normalizes code and fetches its aggregated stats. Any remote
// failure maps to an explicit failed result, never to zero-filled stats.
func (c *Coordinator) Query(ctx context.Context, code string) Result {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Result{Failed: true}
	}

	start := time.Now()
	stats, err := c.ledger.Lookup(ctx, code)
	if err != nil {
		metrics.RecordLookupDuration("failed", time.Since(start).Seconds())
		c.logger.Warn("stats lookup failed",
			zap.String("code", code),
			zap.Error(err),
		)
		return Result{Code: code, Failed: true}
	}

	metrics.RecordLookupDuration("ok", time.Since(start).Seconds())
	return Result{Code: code, Stats: stats}
}
