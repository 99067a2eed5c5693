package importer

import (
	"context"
	"time"

	"prestashop-importer-service/internal/models"
)

// Outcome is the terminal result of a batch loop
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeAborted   Outcome = "ABORTED"
)

// GovernorConfig tunes batch pacing and the abort threshold
type GovernorConfig struct {
	// Abort once both conditions hold: more than AbortMinErrors errors AND
	// the error share of processed items exceeds AbortErrorRatio.
	AbortMinErrors  int
	AbortErrorRatio float64

	// Emit a progress log every ProgressEvery processed items
	ProgressEvery int

	// Pause between items; stretched when the recent error ratio is elevated
	ItemDelay time.Duration
}

// DefaultGovernorConfig returns the batch defaults
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		AbortMinErrors:  10,
		AbortErrorRatio: 0.3,
		ProgressEvery:   3,
		ItemDelay:       100 * time.Millisecond,
	}
}

// Governor tracks per-item outcomes of one batch and decides when the batch
// is doing more harm than good. Each processed item lands in exactly one of
// imported, skipped or errors.
type Governor struct {
	config   GovernorConfig
	counters models.Counters
}

// NewGovernor creates a governor for one batch
func NewGovernor(config GovernorConfig) *Governor {
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 3
	}
	return &Governor{config: config}
}

// SetTotal records the batch size once the listing is known
func (g *Governor) SetTotal(n int) {
	g.counters.Total = n
}

// RecordImported counts one freshly created record
func (g *Governor) RecordImported() {
	g.counters.Processed++
	g.counters.Imported++
}

// RecordSkipped counts one duplicate or intentionally ignored item
func (g *Governor) RecordSkipped() {
	g.counters.Processed++
	g.counters.Skipped++
}

// RecordError counts one failed item
func (g *Governor) RecordError() {
	g.counters.Processed++
	g.counters.Errors++
}

// Counters returns a snapshot of the batch counters
func (g *Governor) Counters() models.Counters {
	return g.counters
}

// ShouldAbort reports whether the error volume crossed the abort threshold
func (g *Governor) ShouldAbort() bool {
	if g.counters.Errors <= g.config.AbortMinErrors {
		return false
	}
	if g.counters.Processed == 0 {
		return false
	}
	ratio := float64(g.counters.Errors) / float64(g.counters.Processed)
	return ratio > g.config.AbortErrorRatio
}

// ShouldLogProgress reports whether a progress line is due
func (g *Governor) ShouldLogProgress() bool {
	return g.counters.Processed > 0 && g.counters.Processed%g.config.ProgressEvery == 0
}

// Delay returns the pause before the next item. The pause triples once the
// running error ratio passes a third of the abort ratio, easing pressure on
// a struggling remote.
func (g *Governor) Delay() time.Duration {
	if g.counters.Processed == 0 || g.counters.Errors == 0 {
		return g.config.ItemDelay
	}
	ratio := float64(g.counters.Errors) / float64(g.counters.Processed)
	if ratio > g.config.AbortErrorRatio/3 {
		return 3 * g.config.ItemDelay
	}
	return g.config.ItemDelay
}

// Pause sleeps for the adaptive delay, returning early on cancellation
func (g *Governor) Pause(ctx context.Context) error {
	return sleep(ctx, g.Delay())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
