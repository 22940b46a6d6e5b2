// Package monitor orchestrates one run: fetch each configured RIN, compare
// against its stored snapshot, record the new state and send a single
// batched notification when anything notable happened.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/config"
	"github.com/danbauman77/reginfo-monitor/internal/detector"
	"github.com/danbauman77/reginfo-monitor/internal/fetcher"
	"github.com/danbauman77/reginfo-monitor/internal/notify"
	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// SnapshotStore is what the orchestrator needs from snapshot persistence.
// *store.Store satisfies it.
type SnapshotStore interface {
	Load(rin string) (*types.Snapshot, bool, error)
	Save(rin string, record *types.Record, fetchedAt time.Time) error
}

// Monitor drives one run over the configured RINs, strictly sequentially
// and in configured order.
type Monitor struct {
	cfg      *config.Config
	store    SnapshotStore
	fetcher  fetcher.Fetcher
	notifier notify.Notifier
	logger   *zap.Logger
}

// RINResult is the terminal outcome for one RIN.
type RINResult struct {
	RIN    string
	State  State
	Report *types.ChangeReport // set once comparison happened, even if the save failed
	Err    error
}

// RunSummary aggregates one run.
type RunSummary struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []RINResult
	Checked     int
	FirstSeen   int
	Changed     int
	Unchanged   int
	Failed      int
	Notified    int // reports included in the sent notification
	DeliveryErr error
}

// New creates a monitor from its collaborators.
func New(cfg *config.Config, st SnapshotStore, f fetcher.Fetcher, n notify.Notifier, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		store:    st,
		fetcher:  f,
		notifier: n,
		logger:   logger,
	}
}

// Run processes every configured RIN to a terminal state and then sends at
// most one notification carrying all notable reports. A single RIN's
// failure never aborts the run; delivery failure never rolls back
// snapshots. The returned summary is complete either way.
func (m *Monitor) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	logger := m.logger.With(zap.String("run_id", summary.RunID))

	logger.Info("Starting run", zap.Int("rins", len(m.cfg.RINs)))

	var notable []types.ChangeReport
	for _, rin := range m.cfg.RINs {
		result := m.processRIN(ctx, rin, logger)
		summary.Results = append(summary.Results, result)
		summary.Checked++

		if result.Report != nil && result.Report.Notable() {
			notable = append(notable, *result.Report)
		}

		switch {
		case result.State == StateFailed:
			summary.Failed++
		case result.Report.Classification == types.ClassFirstSeen:
			summary.FirstSeen++
		case result.Report.Classification == types.ClassChanged:
			summary.Changed++
		default:
			summary.Unchanged++
		}
	}

	if len(notable) > 0 {
		if err := m.notifier.Notify(ctx, notable); err != nil {
			summary.DeliveryErr = err
			logger.Error("Notification delivery failed", zap.Error(err))
		} else {
			summary.Notified = len(notable)
		}
	} else {
		logger.Info("No notable changes, skipping notification")
	}

	summary.FinishedAt = time.Now()
	m.logSummary(logger, summary)
	return summary
}

// processRIN walks one RIN through pending -> fetched -> compared ->
// recorded. On a storage failure after comparison the report stays
// eligible for notification; the user should hear about a detected change
// even when the snapshot write failed.
func (m *Monitor) processRIN(ctx context.Context, rin string, logger *zap.Logger) RINResult {
	result := RINResult{RIN: rin, State: StatePending}
	logger = logger.With(zap.String("rin", rin))

	record, err := m.fetcher.Fetch(ctx, rin)
	if err != nil {
		logger.Warn("Fetch failed", zap.Error(err))
		result.State = StateFailed
		result.Err = err
		return result
	}
	result.State = StateFetched
	fetchedAt := time.Now()

	prev, found, err := m.store.Load(rin)
	if err != nil {
		logger.Warn("Snapshot load failed", zap.Error(err))
		result.State = StateFailed
		result.Err = err
		return result
	}
	if !found {
		prev = nil
	}

	report := detector.Compare(prev, record)
	result.State = StateCompared
	result.Report = &report

	switch report.Classification {
	case types.ClassFirstSeen:
		logger.Info("First seen, recording baseline",
			zap.String("publication", record.PublicationID))
	case types.ClassChanged:
		logger.Info("Change detected",
			zap.Int("fields", len(report.Diffs)))
	default:
		logger.Debug("No changes detected")
	}

	if err := m.store.Save(rin, record, fetchedAt); err != nil {
		// Secondary failure: the detected change still reaches the
		// notifier, it just was not durably recorded.
		logger.Warn("Snapshot save failed", zap.Error(err))
		result.State = StateFailed
		result.Err = err
		return result
	}

	result.State = StateRecorded
	return result
}

// logSummary reports the run outcome, including which RINs failed and why.
func (m *Monitor) logSummary(logger *zap.Logger, s *RunSummary) {
	for _, r := range s.Results {
		if r.State == StateFailed {
			logger.Warn("RIN failed",
				zap.String("rin", r.RIN),
				zap.Error(r.Err))
		}
	}
	logger.Info("Run complete",
		zap.Int("checked", s.Checked),
		zap.Int("first_seen", s.FirstSeen),
		zap.Int("changed", s.Changed),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("failed", s.Failed),
		zap.Int("notified", s.Notified),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)))
}
