package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("agg.op", "success", 10*time.Millisecond)
	h.ObserveOperation("agg.other", "conflict", time.Millisecond)
	h.IncConflict("agg.op")
	h.IncRetry("agg.op")

	if got := h.Statuses("agg.op"); len(got) != 1 || got[0] != "success" {
		t.Fatalf("statuses: want=[success] got=%v", got)
	}
	if len(h.Conflicts) != 1 || h.Conflicts[0] != "agg.op" {
		t.Fatalf("unexpected conflicts: %+v", h.Conflicts)
	}
	if len(h.Retries) != 1 || h.Retries[0] != "agg.op" {
		t.Fatalf("unexpected retries: %+v", h.Retries)
	}
}

func TestFlakyTxRunner_FailsThenRuns(t *testing.T) {
	injected := errors.New("database is locked")
	r := &FlakyTxRunner{Err: injected, Failures: 2}
	runs := 0
	body := func(_ dbctx.Context) error {
		runs++
		return nil
	}
	for i := 0; i < 2; i++ {
		if err := r.InTx(context.Background(), body); !errors.Is(err, injected) {
			t.Fatalf("call %d: want injected err got=%v", i+1, err)
		}
	}
	if err := r.InTx(context.Background(), body); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if runs != 1 || r.Calls != 3 {
		t.Fatalf("runs: want=1 got=%d calls: want=3 got=%d", runs, r.Calls)
	}
}
