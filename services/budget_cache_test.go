package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetCache_HitAndMiss(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 8)
	require.NoError(t, err)

	s := exampleScenario()
	first, hit, err := cache.Calculate(s)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.Calculate(s)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	s.Margin.Value = 25
	_, hit, err = cache.Calculate(s)
	require.NoError(t, err)
	assert.False(t, hit, "a changed input must miss")
	assert.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestBudgetCache_Forget(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 8)
	require.NoError(t, err)

	s := exampleScenario()
	_, _, err = cache.Calculate(s)
	require.NoError(t, err)

	assert.True(t, cache.Forget(s))
	assert.False(t, cache.Forget(s), "second forget finds nothing")
	assert.Equal(t, 0, cache.Len())
}

func TestBudgetCache_DefaultsShareKey(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 8)
	require.NoError(t, err)

	implicit := exampleScenario()
	implicit.TaxBase = ""
	implicit.Allocation = ""
	explicit := newTestEngine().Prepare(implicit)

	_, _, err = cache.Calculate(implicit)
	require.NoError(t, err)
	_, hit, err := cache.Calculate(explicit)
	require.NoError(t, err)
	assert.True(t, hit, "defaulted and explicit policies are the same input")
}

func TestBudgetCache_MatchesEngine(t *testing.T) {
	eng := newTestEngine()
	cache, err := NewBudgetCache(eng, 0)
	require.NoError(t, err)

	s := exampleScenario()
	got, _, err := cache.Calculate(s)
	require.NoError(t, err)
	assert.Equal(t, eng.BuildBudget(s), got)
}

func TestBudgetCache_ResultsAreCopies(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 4)
	require.NoError(t, err)

	s := exampleScenario()
	first, _, err := cache.Calculate(s)
	require.NoError(t, err)
	first.Months[0].Revenue = 0

	second, hit, err := cache.Calculate(s)
	require.NoError(t, err)
	require.True(t, hit)
	assert.NotZero(t, second.Months[0].Revenue)
}

func TestBudgetCache_Evicts(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s := exampleScenario()
		s.Name = fmt.Sprintf("s%d", i)
		_, _, err := cache.Calculate(s)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())
}

func TestScenarioKey_SensitiveToOrder(t *testing.T) {
	s := exampleScenario()
	s.Roster = append(s.Roster, TeamMember{ID: "m2", MonthlySalary: 1})
	a, err := ScenarioKey(s)
	require.NoError(t, err)

	s.Roster[0], s.Roster[1] = s.Roster[1], s.Roster[0]
	b, err := ScenarioKey(s)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBudgetCache_ConcurrentUse(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := exampleScenario()
			s.ContractMonths = i%4 + 1
			b, _, err := cache.Calculate(s)
			assert.NoError(t, err)
			assert.Len(t, b.Months, i%4+1)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, cache.Len())
}

func TestCalculateBatch(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 16)
	require.NoError(t, err)

	var scenarios []Scenario
	for i := 1; i <= 5; i++ {
		s := exampleScenario()
		s.Name = fmt.Sprintf("months-%d", i)
		s.ContractMonths = i
		scenarios = append(scenarios, s)
	}

	results, err := CalculateBatch(context.Background(), cache, scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name)
		assert.Len(t, r.Budget.Months, i+1)
		assert.InDelta(t, 7975, r.Budget.TotalPrice, 0.001)
	}
}

func TestCalculateBatch_Cancelled(t *testing.T) {
	cache, err := NewBudgetCache(newTestEngine(), 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CalculateBatch(ctx, cache, []Scenario{exampleScenario()}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
