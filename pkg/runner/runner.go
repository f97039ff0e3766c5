// Package runner drives a batch of work items through a bounded worker
// pool, collects their results and reports failures.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MaxWorkers caps concurrent requests against the publishers.
const MaxWorkers = 4

// Result is what a worker reports for one item.
type Result struct {
	OK     bool
	Saved  bool
	Reason string
	// Record is the primary output written for the item, if any.
	Record []byte
}

// Worker processes one item. A non-nil error means the item failed; the
// batch continues.
type Worker func(ctx context.Context, item string) (Result, error)

// Outcome pairs an item with its result.
type Outcome struct {
	Item   string
	Result Result
	Err    error
}

// Failed reports whether the item errored or was not processed cleanly.
func (o Outcome) Failed() bool {
	return o.Err != nil || !o.Result.OK
}

// Summary counts a finished batch.
type Summary struct {
	RunID    string
	Task     string
	Total    int
	Saved    int
	Skipped  int
	Errors   int
	Failures []Outcome
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d items, %d saved, %d skipped, %d errors", s.Task, s.Total, s.Saved, s.Skipped, s.Errors)
}

// Recorder persists a receipt for every processed item.
type Recorder interface {
	Record(ctx context.Context, runID, task string, o Outcome) error
}

// Runner executes batches.
type Runner struct {
	Task     string
	Workers  int
	Notifier Notifier
	Receipts Recorder

	logger *slog.Logger
}

// New returns a runner for the named task. workers is clamped to [1, MaxWorkers].
func New(task string, workers int) *Runner {
	return &Runner{
		Task:     task,
		Workers:  clamp(workers),
		Notifier: LogNotifier{},
		logger:   slog.Default().With("component", "runner", "task", task),
	}
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// Run processes items and returns their outcomes in input order. Items not
// yet dispatched when ctx is cancelled are left out; in-flight items finish.
func (r *Runner) Run(ctx context.Context, items []string, work Worker) (Summary, []Outcome) {
	if r.logger == nil {
		r.logger = slog.Default().With("component", "runner", "task", r.Task)
	}
	runID := uuid.NewString()
	outcomes := make([]*Outcome, len(items))

	sem := make(chan struct{}, clamp(r.Workers))
	var wg sync.WaitGroup

dispatch:
	for i, item := range items {
		select {
		case <-ctx.Done():
			r.logger.WarnContext(ctx, "run cancelled", "remaining", len(items)-i)
			break dispatch
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			r.logger.WarnContext(ctx, "run cancelled", "remaining", len(items)-i)
			break dispatch
		}
		wg.Add(1)
		go func(i int, item string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = r.runOne(ctx, runID, item, work)
		}(i, item)
	}
	wg.Wait()

	summary := Summary{RunID: runID, Task: r.Task}
	var done []Outcome
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		done = append(done, *o)
		summary.Total++
		switch {
		case o.Failed():
			summary.Errors++
			summary.Failures = append(summary.Failures, *o)
		case o.Result.Saved:
			summary.Saved++
		default:
			summary.Skipped++
		}
	}

	r.logger.InfoContext(ctx, "run finished", "run_id", runID,
		"total", summary.Total, "saved", summary.Saved, "skipped", summary.Skipped, "errors", summary.Errors)
	if summary.Errors > 0 && r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, summary.String(), failureReport(summary)); err != nil {
			r.logger.WarnContext(ctx, "admin notification failed", "error", err)
		}
	}
	return summary, done
}

func (r *Runner) runOne(ctx context.Context, runID, item string, work Worker) *Outcome {
	res, err := work(ctx, item)
	o := &Outcome{Item: item, Result: res, Err: err}
	switch {
	case err != nil:
		r.logger.ErrorContext(ctx, "item failed", "item", item, "error", err)
	case !res.OK:
		r.logger.WarnContext(ctx, "item not processed", "item", item, "reason", res.Reason)
	case res.Saved:
		r.logger.InfoContext(ctx, "item saved", "item", item)
	default:
		r.logger.DebugContext(ctx, "item skipped", "item", item, "reason", res.Reason)
	}
	if r.Receipts != nil {
		if rerr := r.Receipts.Record(ctx, runID, r.Task, *o); rerr != nil {
			r.logger.WarnContext(ctx, "receipt not recorded", "item", item, "error", rerr)
		}
	}
	return o
}

func failureReport(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", s.RunID)
	for _, f := range s.Failures {
		reason := f.Result.Reason
		if f.Err != nil {
			reason = f.Err.Error()
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Item, reason)
	}
	return b.String()
}
