package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/routing"
)

func TestScoreCandidatesPreservesInputOrder(t *testing.T) {
	n := testServiceNetwork(t)
	model := routing.CostModel{Amount: 1_000_000}
	paths := []domain.Path{
		{"IN", "US"},
		{"IN", "SG", "US"},
		{"IN", "NL", "US"},
	}

	for workers := 1; workers <= 8; workers++ {
		candidates, err := scoreCandidates(context.Background(), workers, n, model, paths)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if len(candidates) != len(paths) {
			t.Fatalf("workers=%d: expected %d candidates, got %d", workers, len(paths), len(candidates))
		}
		for i := range paths {
			if !candidates[i].Path.Equal(paths[i]) {
				t.Fatalf("workers=%d: candidate %d holds %s, want %s", workers, i, candidates[i].Path, paths[i])
			}
			if candidates[i].Metrics.TotalCostPct <= 0 {
				t.Fatalf("workers=%d: candidate %d has no cost", workers, i)
			}
		}
	}
}

func TestScoreCandidatesEmptyInput(t *testing.T) {
	n := testServiceNetwork(t)
	candidates, err := scoreCandidates(context.Background(), 4, n, routing.CostModel{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected nil candidates, got %v", candidates)
	}
}

func TestScoreCandidatesWrapsCostFailures(t *testing.T) {
	n := testServiceNetwork(t)
	// US-IN does not exist in the fixture, so costing must fail.
	paths := []domain.Path{
		{"IN", "SG", "US"},
		{"US", "IN"},
	}

	_, err := scoreCandidates(context.Background(), 2, n, routing.CostModel{}, paths)
	if err == nil {
		t.Fatal("expected error for unresolvable path")
	}
	if got := domain.KindOf(err); got != domain.KindInternal {
		t.Fatalf("expected internal kind, got %s", got)
	}
}

func TestRunPoolVisitsEveryIndex(t *testing.T) {
	const total = 100
	var visited [total]int32

	err := runPool(context.Background(), 7, total, func(idx int) error {
		atomic.AddInt32(&visited[idx], 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, count := range visited {
		if count != 1 {
			t.Fatalf("index %d visited %d times", i, count)
		}
	}
}

func TestRunPoolCollectsErrors(t *testing.T) {
	failAt := map[int]bool{3: true, 7: true}

	err := runPool(context.Background(), 4, 10, func(idx int) error {
		if failAt[idx] {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %T", err)
	}
	if len(taskErr.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %d", len(taskErr.Errors))
	}
}

func TestRunPoolStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := runPool(ctx, 2, 1000, func(idx int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&calls) == 1000 {
		t.Fatal("expected early stop, all tasks ran")
	}
}
