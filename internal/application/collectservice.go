// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// triggerRequest represents a scheduled or manual collection trigger.
type triggerRequest struct {
	trigger model.RunTrigger
	done    chan triggerResult
}

type triggerResult struct {
	runID int64
	err   error
}

// CollectOptions holds the collection parameters.
type CollectOptions struct {
	RootSecUID    string
	PostWindow    time.Duration // How far back posts are considered.
	RollingWindow int           // Rolling average window in days.
}

// CollectService orchestrates collection runs: creator discovery, post
// fetching, daily aggregation, persistence, and export. All triggers funnel
// through a single goroutine, so runs never overlap; a manual trigger during
// a scheduled run waits its turn.
type CollectService struct {
	client       driven.TikTokClient
	creatorStore driven.CreatorStore
	statStore    driven.StatStore
	runStore     driven.RunStore
	sinks        []driven.TrendSink
	opts         CollectOptions
	triggerCh    chan triggerRequest
}

// NewCollectService creates a new CollectService with all required
// dependencies. sinks may be empty; the local store is always written.
func NewCollectService(
	client driven.TikTokClient,
	creatorStore driven.CreatorStore,
	statStore driven.StatStore,
	runStore driven.RunStore,
	sinks []driven.TrendSink,
	opts CollectOptions,
) *CollectService {
	return &CollectService{
		client:       client,
		creatorStore: creatorStore,
		statStore:    statStore,
		runStore:     runStore,
		sinks:        sinks,
		opts:         opts,
		triggerCh:    make(chan triggerRequest),
	}
}

// Start runs the trigger loop. Each received trigger executes one full
// collection run to completion before the next is accepted. Start blocks
// until the context is canceled.
func (s *CollectService) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("collect service stopped")
			return
		case req := <-s.triggerCh:
			runID, err := s.beginRun(ctx, req.trigger)
			req.done <- triggerResult{runID: runID, err: err}
			if err != nil {
				slog.Error("run creation failed", "trigger", req.trigger, "error", err)
				continue
			}
			s.executeRun(ctx, runID, req.trigger)
		}
	}
}

// TriggerRun requests a collection run and returns its run ID as soon as the
// run record exists. The run itself executes asynchronously in the Start
// loop; callers observe completion through the run store. TriggerRun blocks
// while a previous run is still executing.
func (s *CollectService) TriggerRun(ctx context.Context, trigger model.RunTrigger) (int64, error) {
	done := make(chan triggerResult, 1)
	req := triggerRequest{trigger: trigger, done: done}

	select {
	case s.triggerCh <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-done:
		return res.runID, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// beginRun inserts the run record in running state.
func (s *CollectService) beginRun(ctx context.Context, trigger model.RunTrigger) (int64, error) {
	return s.runStore.Create(ctx, model.Run{
		Trigger:   trigger,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	})
}

// executeRun performs one collection run and records its terminal state.
func (s *CollectService) executeRun(ctx context.Context, runID int64, trigger model.RunTrigger) {
	start := time.Now()
	run := model.Run{
		ID:      runID,
		Trigger: trigger,
		Status:  model.RunStatusSucceeded,
	}

	slog.Info("run started", "run_id", runID, "trigger", trigger)

	if err := s.collect(ctx, &run); err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		slog.Error("run failed", "run_id", runID, "error", err)
	}

	// The terminal write must land even when ctx was canceled mid-run
	// (shutdown), or the row stays in running state forever.
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run.FinishedAt = time.Now().UTC()
	if err := s.runStore.Finish(finishCtx, run); err != nil {
		slog.Error("run finish not recorded", "run_id", runID, "error", err)
	}

	slog.Info("run complete",
		"run_id", runID,
		"status", string(run.Status),
		"creators", run.Creators,
		"creator_errors", run.CreatorErrors,
		"rows", run.Rows,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// collect is the collection pipeline. The first structural error (discovery,
// persistence, export) aborts the run; per-creator fetch failures are counted
// and skipped, matching a best-effort sweep over many accounts.
func (s *CollectService) collect(ctx context.Context, run *model.Run) error {
	since := time.Now().UTC().Add(-s.opts.PostWindow)

	creators, err := s.client.FetchFollowing(ctx, s.opts.RootSecUID)
	if err != nil {
		return fmt.Errorf("discover creators: %w", err)
	}
	slog.Info("creators discovered", "count", len(creators))

	var snapshot []model.DailyStat

	for _, creator := range creators {
		if err := ctx.Err(); err != nil {
			return err
		}

		run.Creators++

		if err := s.creatorStore.Upsert(ctx, creator); err != nil {
			return fmt.Errorf("store creator %q: %w", creator.Username, err)
		}

		posts, err := s.client.FetchPosts(ctx, creator.SecUID, since)
		if err != nil {
			slog.Error("post fetch failed", "creator", creator.Username, "error", err)
			run.CreatorErrors++
			continue
		}

		stats := BuildDailyStats(creator.Username, posts, s.opts.RollingWindow)
		if len(stats) == 0 {
			slog.Info("no posts in window", "creator", creator.Username)
			continue
		}

		if err := s.statStore.UpsertBatch(ctx, stats); err != nil {
			return fmt.Errorf("store stats for %q: %w", creator.Username, err)
		}
		if err := s.creatorStore.MarkCollected(ctx, creator.Username, time.Now().UTC()); err != nil {
			return fmt.Errorf("mark %q collected: %w", creator.Username, err)
		}

		run.Rows += len(stats)
		snapshot = append(snapshot, stats...)

		slog.Debug("creator collected", "creator", creator.Username, "posts", len(posts), "days", len(stats))
	}

	for _, sink := range s.sinks {
		if err := sink.WriteDailyStats(ctx, run.ID, snapshot); err != nil {
			return fmt.Errorf("export to %s: %w", sink.Name(), err)
		}
	}

	return nil
}
