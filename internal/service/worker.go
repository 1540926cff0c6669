package service

import (
	"context"
	"errors"
	"sync"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/repository"
	"github.com/arjun/caproute/backend/internal/routing"
)

// TaskError accumulates multiple errors produced by a worker pool.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// scoreCandidates computes path metrics for every enumerated path using a
// bounded worker pool. Per-candidate scoring is independent, so completion
// order does not matter: results land at their path's index and the ranker
// re-imposes a deterministic order afterwards.
func scoreCandidates(ctx context.Context, workers int, n *routing.Network, model routing.CostModel, paths []domain.Path) ([]routing.Candidate, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	candidates := make([]routing.Candidate, len(paths))

	err := runPool(ctx, workers, len(paths), func(idx int) error {
		costs, err := model.PathCosts(n, paths[idx])
		if err != nil {
			// Enumerated paths always resolve; anything else is a bug.
			return domain.Internal(err)
		}
		candidates[idx] = routing.Candidate{
			Path:    paths[idx],
			Metrics: routing.PathMetrics(costs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// SeedLoader bulk-writes corridor datasets into the graph store using a
// worker pool.
type SeedLoader struct {
	repo    *repository.Repository
	workers int
}

// NewSeedLoader creates a SeedLoader with the provided concurrency.
func NewSeedLoader(repo *repository.Repository, workers int) *SeedLoader {
	if workers <= 0 {
		workers = 4
	}
	return &SeedLoader{repo: repo, workers: workers}
}

// LoadJurisdictions upserts the provided jurisdictions concurrently.
func (l *SeedLoader) LoadJurisdictions(ctx context.Context, jurisdictions []domain.Jurisdiction) error {
	return runPool(ctx, l.workers, len(jurisdictions), func(idx int) error {
		return l.repo.UpsertJurisdiction(ctx, jurisdictions[idx])
	})
}

// LoadCorridors upserts the provided corridors concurrently.
func (l *SeedLoader) LoadCorridors(ctx context.Context, corridors []domain.Corridor) error {
	return runPool(ctx, l.workers, len(corridors), func(idx int) error {
		return l.repo.UpsertCorridor(ctx, corridors[idx])
	})
}

func runPool(ctx context.Context, workers, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
