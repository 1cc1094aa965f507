package planner

import (
	"context"
	"math/rand"
	"testing"
)

// benchmarkOptimizer builds a dim x dim table with pseudo-random legs of
// 1-20 minutes and dwell times of 5-45 minutes.
func benchmarkOptimizer(b *testing.B, dim int) (*Optimizer, []Candidate) {
	b.Helper()
	rng := rand.New(rand.NewSource(42))

	minutes := make([][]float64, dim)
	dwell := make(map[int]float64, dim)
	candidates := make([]Candidate, dim)
	for i := range minutes {
		minutes[i] = make([]float64, dim)
		for j := range minutes[i] {
			if i != j {
				minutes[i][j] = float64(1 + rng.Intn(20))
			}
		}
		dwell[i] = float64(5 + rng.Intn(41))
		s := rng.Float64()
		candidates[i] = Candidate{
			ID:          i,
			Title:       "place",
			Description: "somewhere to go",
			Score:       &s,
			Latitude:    56.3 + rng.Float64()/100,
			Longitude:   44.0 + rng.Float64()/100,
		}
	}

	travel, err := NewTravelTimes(minutes)
	if err != nil {
		b.Fatal(err)
	}
	return NewOptimizer(travel, NewDwellTimes(dim, dwell), nil, DefaultConfig()), candidates
}

func BenchmarkOptimizer_Plan(b *testing.B) {
	for _, bc := range []struct {
		name   string
		n      int
		budget float64
	}{
		{name: "top5_2h", n: 5, budget: 120},
		{name: "top10_1h", n: 10, budget: 60},
		{name: "top10_5h", n: 10, budget: 300},
	} {
		b.Run(bc.name, func(b *testing.B) {
			o, candidates := benchmarkOptimizer(b, bc.n)
			origin := Point{Lat: 56.3, Lon: 44.0}
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := o.Plan(ctx, candidates, bc.budget, origin); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
