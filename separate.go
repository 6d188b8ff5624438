package fvrpt

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type SeparationStats struct {
	Calls          int
	ReverseArcCuts int
	SubtourCuts    int
	Truncated      int
}

// Separator turns structural defects of integer-feasible candidates into cuts.
// The solver calls Separate once per candidate and serializes those calls, so
// the separator holds no locks.
type Separator struct {
	net     *Network
	cfg     Config
	elapsed func() time.Duration

	firstConsistent time.Duration
	consistentSeen  bool
	stats           SeparationStats
}

type SeparatorOption func(*Separator)

// WithClock replaces the elapsed solve time source, which defaults to the wall
// time since the separator was created.
func WithClock(elapsed func() time.Duration) SeparatorOption {
	return func(s *Separator) {
		s.elapsed = elapsed
	}
}

func NewSeparator(net *Network, cfg Config, opts ...SeparatorOption) (*Separator, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	s := &Separator{
		net:     net,
		cfg:     cfg,
		elapsed: func() time.Duration { return time.Since(start) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FirstConsistent returns the elapsed time of the first candidate that produced
// no cut at all. It is recorded once and never overwritten.
func (s *Separator) FirstConsistent() (time.Duration, bool) {
	return s.firstConsistent, s.consistentSeen
}

func (s *Separator) Stats() SeparationStats {
	return s.stats
}

// Separate checks every acquired vehicle of the candidate for reverse-arc pairs
// and subtours and returns the cuts to add. At most MaxCutsPerVehicle cuts are
// produced per vehicle and MaxCutsPerCall in total; whatever is skipped shows up
// again in later candidates. Every returned cut is violated by cand.
func (s *Separator) Separate(cand Candidate) []Cut {
	s.stats.Calls++
	var cuts []Cut

	for v := 0; v < s.net.VehicleCount(); v++ {
		left := s.cfg.MaxCutsPerCall - len(cuts)
		if left <= 0 {
			s.stats.Truncated++
			Log(LOG_SPAM, "Cut budget of %d reached before vehicle %d", s.cfg.MaxCutsPerCall, v)
			break
		}
		if cand.Acquired(v) <= s.cfg.Threshold {
			continue
		}
		budget := s.cfg.MaxCutsPerVehicle
		if left < budget {
			budget = left
		}
		cuts = append(cuts, s.separateVehicle(cand, v, budget)...)
	}

	if len(cuts) == 0 && !s.consistentSeen {
		s.firstConsistent = s.elapsed()
		s.consistentSeen = true
		Log(LOG_INFO, "First candidate without reverse arcs or subtours after %s", s.firstConsistent)
	}
	Log(LOG_SPAM, "Separation call %d produced %d cuts", s.stats.Calls, len(cuts))
	return cuts
}

func (s *Separator) separateVehicle(cand Candidate, v, budget int) []Cut {
	var cuts []Cut
	emit := func(c Cut) bool {
		if !c.Violated(cand, s.cfg.Tolerance) {
			return true
		}
		cuts = append(cuts, c)
		switch c.Kind {
		case CUT_REVERSE_ARC:
			s.stats.ReverseArcCuts++
		case CUT_SUBTOUR:
			s.stats.SubtourCuts++
		}
		Log(LOG_DEBUG, "Adding %s cut for vehicle %d: %s", c.Kind, v, c)
		return len(cuts) < budget
	}

	// Reverse arcs come first: a pair i->j->i would otherwise show up as a
	// two-node component in the connectivity graph below.
	for i := 1; i < s.net.NodeCount(); i++ {
		for j := i + 1; j < s.net.NodeCount(); j++ {
			if cand.Arc(i, j, v) > s.cfg.Threshold && cand.Arc(j, i, v) > s.cfg.Threshold {
				if !emit(reverseArcCut(i, j, v)) {
					return cuts
				}
			}
		}
	}

	for _, comp := range s.components(cand, v) {
		if len(comp) < 2 || comp[0] == DEPOT {
			continue
		}
		if !emit(subtourCut(comp, v)) {
			return cuts
		}
	}
	return cuts
}

// components returns the connected components of the undirected graph over the
// nodes vehicle v visits, each sorted and ordered by its smallest node.
func (s *Separator) components(cand Candidate, v int) [][]int {
	g := simple.NewUndirectedGraph()
	var visited []int
	for i := 0; i < s.net.NodeCount(); i++ {
		if cand.Visit(v, i) > s.cfg.Threshold {
			visited = append(visited, i)
			g.AddNode(simple.Node(i))
		}
	}
	for _, i := range visited {
		for _, j := range visited {
			if i != j && cand.Arc(i, j, v) > s.cfg.Threshold {
				g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}

	var comps [][]int
	for _, cc := range topo.ConnectedComponents(g) {
		comp := make([]int, len(cc))
		for k, node := range cc {
			comp[k] = int(node.ID())
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	sort.Slice(comps, func(a, b int) bool {
		return comps[a][0] < comps[b][0]
	})
	return comps
}

func reverseArcCut(i, j, v int) Cut {
	return Cut{
		Kind:    CUT_REVERSE_ARC,
		Vehicle: v,
		Terms:   []Term{{Arc: ArcKey{i, j, v}, Coef: 1}, {Arc: ArcKey{j, i, v}, Coef: 1}},
		RHS:     1,
	}
}

// subtourCut is sum over i != j in comp of x[i,j,v] <= |comp| - 1.
func subtourCut(comp []int, v int) Cut {
	terms := make([]Term, 0, len(comp)*(len(comp)-1))
	for _, i := range comp {
		for _, j := range comp {
			if i != j {
				terms = append(terms, Term{Arc: ArcKey{i, j, v}, Coef: 1})
			}
		}
	}
	return Cut{
		Kind:    CUT_SUBTOUR,
		Vehicle: v,
		Terms:   terms,
		RHS:     float64(len(comp) - 1),
	}
}
