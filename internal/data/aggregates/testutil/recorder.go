package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// Statuses returns the observed statuses for one operation in call order.
func (h *HooksRecorder) Statuses(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, op := range h.Operations {
		if op.Name == name {
			out = append(out, op.Status)
		}
	}
	return out
}

// FlakyTxRunner fails the first Failures transactions with Err before the
// body runs, then delegates to Inner. A nil Inner runs the body without a
// transaction.
type FlakyTxRunner struct {
	mu sync.Mutex

	Inner    aggregates.TxRunner
	Err      error
	Failures int

	Calls int
}

var _ aggregates.TxRunner = (*FlakyTxRunner)(nil)

func (r *FlakyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Calls++
	fail := r.Failures > 0
	if fail {
		r.Failures--
	}
	err := r.Err
	r.mu.Unlock()

	if fail {
		return err
	}
	if r.Inner != nil {
		return r.Inner.InTx(ctx, fn)
	}
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}
