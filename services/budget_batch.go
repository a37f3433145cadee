package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs a scenario name with its computed budget.
type BatchResult struct {
	Name     string             `json:"name"`
	Budget   ConsolidatedBudget `json:"budget"`
	CacheHit bool               `json:"cache_hit"`
}

// CalculateBatch computes every scenario concurrently through the cache,
// at most limit at a time. Results keep the input order. Scenarios are
// expected to be validated already.
func CalculateBatch(ctx context.Context, cache *BudgetCache, scenarios []Scenario, limit int) ([]BatchResult, error) {
	results := make([]BatchResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, hit, err := cache.Calculate(s)
			if err != nil {
				return fmt.Errorf("scenario %d (%s): %w", i, s.Name, err)
			}
			results[i] = BatchResult{Name: s.Name, Budget: b, CacheHit: hit}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
