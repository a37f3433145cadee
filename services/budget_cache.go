package services

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// DefaultCacheSize is used when a cache is created with a non-positive size.
const DefaultCacheSize = 256

// BudgetCache memoizes BuildBudget results keyed by a structural hash of
// the whole scenario. The engine itself stays cache-free; this wrapper is
// safe for concurrent use.
type BudgetCache struct {
	engine Engine
	lru    *lru.Cache[uint64, ConsolidatedBudget]
}

// NewBudgetCache wraps engine with an LRU holding at most size results.
func NewBudgetCache(engine Engine, size int) (*BudgetCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[uint64, ConsolidatedBudget](size)
	if err != nil {
		return nil, fmt.Errorf("create budget cache: %w", err)
	}
	return &BudgetCache{engine: engine, lru: c}, nil
}

// Engine returns the wrapped engine.
func (c *BudgetCache) Engine() Engine {
	return c.engine
}

// ScenarioKey hashes every field of the scenario.
func ScenarioKey(s Scenario) (uint64, error) {
	key, err := hashstructure.Hash(s, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash scenario: %w", err)
	}
	return key, nil
}

// Calculate returns the budget for s, computing it on a miss. hit reports
// whether the result came from the cache. Empty policy fields are filled
// from the engine defaults before hashing.
func (c *BudgetCache) Calculate(s Scenario) (budget ConsolidatedBudget, hit bool, err error) {
	s = c.engine.Prepare(s)
	key, err := ScenarioKey(s)
	if err != nil {
		return ConsolidatedBudget{}, false, err
	}
	if b, ok := c.lru.Get(key); ok {
		return b.Clone(), true, nil
	}
	b := c.engine.BuildBudget(s)
	c.lru.Add(key, b)
	return b.Clone(), false, nil
}

// Forget drops the cached result for s and reports whether one was held.
func (c *BudgetCache) Forget(s Scenario) bool {
	key, err := ScenarioKey(c.engine.Prepare(s))
	if err != nil {
		return false
	}
	return c.lru.Remove(key)
}

// Len reports how many results are cached.
func (c *BudgetCache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached result.
func (c *BudgetCache) Purge() {
	c.lru.Purge()
}
