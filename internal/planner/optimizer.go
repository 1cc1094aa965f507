package planner

import (
	"context"
	"math"

	"github.com/FACorreiaa/go-poi-walks/internal/validation"
)

const (
	DefaultMaxStops = 5
	DefaultMaxShift = 4
	DefaultSlack    = 1.0
)

// TieBreak selects what happens when two feasible arrangements have the same score.
type TieBreak string

const (
	// TieBreakFirstFound keeps the arrangement enumerated first. Enumeration
	// starts at the largest size and walks permutations in candidate order.
	TieBreakFirstFound TieBreak = "first"
	// TieBreakDuration prefers the shorter walk, then the lexicographically
	// smaller id sequence.
	TieBreakDuration TieBreak = "duration"
)

// Valid reports whether t names a known tie-break rule.
func (t TieBreak) Valid() bool {
	return t == TieBreakFirstFound || t == TieBreakDuration
}

// Config bounds the search. MaxStops and MaxShift must stay small: the number
// of arrangements examined grows factorially with MaxStops.
type Config struct {
	MaxStops int
	MaxShift int
	Slack    float64
	TieBreak TieBreak
}

func DefaultConfig() Config {
	return Config{
		MaxStops: DefaultMaxStops,
		MaxShift: DefaultMaxShift,
		Slack:    DefaultSlack,
		TieBreak: TieBreakFirstFound,
	}
}

// Optimizer picks and orders candidates under a time budget. It holds only
// read-only tables and is safe for concurrent use.
type Optimizer struct {
	travel *TravelTimes
	dwell  *DwellTimes
	origin OriginEstimator
	cfg    Config
}

func NewOptimizer(travel *TravelTimes, dwell *DwellTimes, origin OriginEstimator, cfg Config) *Optimizer {
	if travel == nil {
		travel = ZeroTravelTimes(DefaultMatrixDim)
	}
	if dwell == nil {
		dwell = ZeroDwellTimes(travel.Dim())
	}
	if origin == nil {
		origin = NewPlanarEstimator(DefaultMetersPerMinute)
	}
	if cfg.MaxStops <= 0 {
		cfg.MaxStops = DefaultMaxStops
	}
	if cfg.MaxShift < 0 {
		cfg.MaxShift = 0
	}
	if cfg.Slack < 0 {
		cfg.Slack = 0
	}
	if !cfg.TieBreak.Valid() {
		cfg.TieBreak = TieBreakFirstFound
	}
	return &Optimizer{travel: travel, dwell: dwell, origin: origin, cfg: cfg}
}

// Config returns the effective search configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Partition splits candidates into those that can take part in planning and
// those that cannot: ids outside the travel-time matrix, out-of-range
// coordinates, blank titles or descriptions. Only the first candidate with a
// given id is kept.
func (o *Optimizer) Partition(candidates []Candidate) ([]Candidate, []*InvalidCandidateError) {
	valid := make([]Candidate, 0, len(candidates))
	seen := make(map[int]struct{}, len(candidates))
	var rejected []*InvalidCandidateError
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			rejected = append(rejected, &InvalidCandidateError{ID: c.ID, Reason: "duplicate id"})
			continue
		}
		if c.ID < 0 || c.ID >= o.travel.Dim() {
			rejected = append(rejected, &InvalidCandidateError{ID: c.ID, Reason: "id outside travel-time matrix"})
			continue
		}
		if verr := validation.ValidateStruct(&c); verr != nil {
			rejected = append(rejected, &InvalidCandidateError{ID: c.ID, Reason: verr.Error()})
			continue
		}
		seen[c.ID] = struct{}{}
		valid = append(valid, c)
	}
	return valid, rejected
}

// Evaluate returns the score and duration of visiting stops in order starting
// from origin.
func (o *Optimizer) Evaluate(stops []Candidate, origin Point) (score, duration float64) {
	for i, s := range stops {
		score += s.Relevance()
		duration += o.dwell.Minutes(s.ID)
		if i == 0 {
			duration += o.origin.Minutes(origin, s.Location())
			continue
		}
		duration += o.travel.Minutes(stops[i-1].ID, s.ID)
	}
	return score, duration
}

// Plan searches every ordered arrangement of up to MaxStops candidates,
// starting with the largest size and shrinking it up to MaxShift times. An
// arrangement is feasible when duration - Slack <= budget and is kept when its
// score beats the best so far (initially 0). If nothing was feasible, single
// stops are tried as a last resort.
//
// A budget increase does not guarantee a higher or equal best score, since
// each size level is explored independently of the others.
//
// The returned error is non-nil only when ctx is done.
func (o *Optimizer) Plan(ctx context.Context, candidates []Candidate, budget float64, origin Point) (Result, error) {
	valid, rejected := o.Partition(candidates)
	res := Result{Rejected: rejected}
	if len(valid) == 0 {
		return res, nil
	}

	s := newSearch(o, valid, math.Max(budget, 0), origin)

	size := min(o.cfg.MaxStops, len(valid))
	for shift := 0; shift <= o.cfg.MaxShift && size-shift >= 1; shift++ {
		if err := s.searchSize(ctx, size-shift); err != nil {
			return res, err
		}
	}
	if s.best == nil {
		if err := s.searchSize(ctx, 1); err != nil {
			return res, err
		}
	}
	if s.best == nil {
		return res, nil
	}

	stops := make([]Candidate, len(s.best))
	for i, idx := range s.best {
		stops[i] = valid[idx]
	}
	res.Itinerary = Itinerary{Stops: stops, Score: s.bestScore, Duration: s.bestDuration}
	res.Found = true
	return res, nil
}

type search struct {
	o          *Optimizer
	candidates []Candidate
	originLegs []float64
	budget     float64

	path []int
	used []bool

	best         []int
	bestScore    float64
	bestDuration float64
}

func newSearch(o *Optimizer, candidates []Candidate, budget float64, origin Point) *search {
	legs := make([]float64, len(candidates))
	for i, c := range candidates {
		legs[i] = o.origin.Minutes(origin, c.Location())
	}
	return &search{
		o:          o,
		candidates: candidates,
		originLegs: legs,
		budget:     budget,
		path:       make([]int, 0, len(candidates)),
		used:       make([]bool, len(candidates)),
	}
}

// searchSize enumerates arrangements of exactly size stops in lexicographic
// order of candidate positions.
func (s *search) searchSize(ctx context.Context, size int) error {
	s.path = s.path[:0]
	return s.extend(ctx, size, 0, 0)
}

func (s *search) extend(ctx context.Context, size int, duration, score float64) error {
	depth := len(s.path)
	if depth == size {
		s.consider(duration, score)
		return nil
	}

	for i, c := range s.candidates {
		if s.used[i] {
			continue
		}
		if depth == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		next := duration + s.o.dwell.Minutes(c.ID)
		if depth == 0 {
			next += s.originLegs[i]
		} else {
			next += s.o.travel.Minutes(s.candidates[s.path[depth-1]].ID, c.ID)
		}
		// Every leg is non-negative, so an over-budget prefix cannot recover.
		if next-s.o.cfg.Slack > s.budget {
			continue
		}

		s.used[i] = true
		s.path = append(s.path, i)
		err := s.extend(ctx, size, next, score+c.Relevance())
		s.path = s.path[:depth]
		s.used[i] = false
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *search) consider(duration, score float64) {
	if !(duration-s.o.cfg.Slack <= s.budget) {
		return
	}
	switch {
	case score > s.bestScore:
	case s.o.cfg.TieBreak == TieBreakDuration && s.best != nil && score == s.bestScore && s.shorter(duration):
	default:
		return
	}
	s.best = append(s.best[:0], s.path...)
	s.bestScore = score
	s.bestDuration = duration
}

func (s *search) shorter(duration float64) bool {
	if duration != s.bestDuration {
		return duration < s.bestDuration
	}
	for k := 0; k < len(s.path) && k < len(s.best); k++ {
		a, b := s.candidates[s.path[k]].ID, s.candidates[s.best[k]].ID
		if a != b {
			return a < b
		}
	}
	return len(s.path) < len(s.best)
}
