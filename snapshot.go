package fvrpt

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Candidate is what the separation engine needs to read from a solution.
type Candidate interface {
	Arc(i, j, v int) float64
	Visit(v, i int) float64
	Acquired(v int) float64
}

// Values holds the raw variable families of one candidate. Keys that are absent
// are worth 0.
type Values struct {
	Flow     map[FlowKey]float64
	Arcs     map[ArcKey]float64
	Acquired map[int]float64
	Visits   map[VisitKey]float64
	Hubs     map[int]float64
}

// Snapshot is a read-only view of one candidate assignment. Every lookup of an
// unset key returns 0, never an error.
type Snapshot struct {
	flow     map[FlowKey]float64
	arcs     map[ArcKey]float64
	acquired map[int]float64
	visits   map[VisitKey]float64
	hubs     map[int]float64
}

// NewSnapshot copies the given values, so later changes to vals do not leak into
// the snapshot. Zero entries are dropped.
func NewSnapshot(vals Values) *Snapshot {
	return &Snapshot{
		flow:     copyNonZero(vals.Flow),
		arcs:     copyNonZero(vals.Arcs),
		acquired: copyNonZero(vals.Acquired),
		visits:   copyNonZero(vals.Visits),
		hubs:     copyNonZero(vals.Hubs),
	}
}

func copyNonZero[K comparable](m map[K]float64) map[K]float64 {
	res := make(map[K]float64, len(m))
	for k, val := range m {
		if val != 0 {
			res[k] = val
		}
	}
	return res
}

func binarize[K comparable](m map[K]float64, threshold float64) map[K]float64 {
	res := make(map[K]float64, len(m))
	for k, val := range m {
		if val > threshold {
			res[k] = 1
		}
	}
	return res
}

func (s *Snapshot) Flow(i, j, v, w int) float64 {
	return s.flow[FlowKey{i, j, v, w}]
}

func (s *Snapshot) Arc(i, j, v int) float64 {
	return s.arcs[ArcKey{i, j, v}]
}

func (s *Snapshot) Acquired(v int) float64 {
	return s.acquired[v]
}

func (s *Snapshot) Visit(v, i int) float64 {
	return s.visits[VisitKey{v, i}]
}

func (s *Snapshot) Hub(i int) float64 {
	return s.hubs[i]
}

// Values returns a copy of the stored non-zero entries.
func (s *Snapshot) Values() Values {
	return Values{
		Flow:     copyNonZero(s.flow),
		Arcs:     copyNonZero(s.arcs),
		Acquired: copyNonZero(s.acquired),
		Visits:   copyNonZero(s.visits),
		Hubs:     copyNonZero(s.hubs),
	}
}

// Binarize thresholds every value: above threshold becomes 1, the rest 0. The
// verifier expects binarized input for its exact unit-flow checks.
func (s *Snapshot) Binarize(threshold float64) *Snapshot {
	return &Snapshot{
		flow:     binarize(s.flow, threshold),
		arcs:     binarize(s.arcs, threshold),
		acquired: binarize(s.acquired, threshold),
		visits:   binarize(s.visits, threshold),
		hubs:     binarize(s.hubs, threshold),
	}
}

// CheckRange fails with ErrInvalidInput if any stored key lies outside the network.
func (s *Snapshot) CheckRange(n *Network) error {
	for k := range s.flow {
		if !n.hasNode(k.From) || !n.hasNode(k.To) || !n.hasVehicle(k.Vehicle) || !n.hasCommodity(k.Commodity) {
			return invalidf("flow key (%d,%d,%d,%d) out of range", k.From, k.To, k.Vehicle, k.Commodity)
		}
	}
	for k := range s.arcs {
		if !n.hasNode(k.From) || !n.hasNode(k.To) || !n.hasVehicle(k.Vehicle) {
			return invalidf("arc key (%d,%d,%d) out of range", k.From, k.To, k.Vehicle)
		}
	}
	for v := range s.acquired {
		if !n.hasVehicle(v) {
			return invalidf("acquisition key %d out of range", v)
		}
	}
	for k := range s.visits {
		if !n.hasVehicle(k.Vehicle) || !n.hasNode(k.Node) {
			return invalidf("visit key (%d,%d) out of range", k.Vehicle, k.Node)
		}
	}
	for i := range s.hubs {
		if !n.hasNode(i) {
			return invalidf("hub key %d out of range", i)
		}
	}
	return nil
}

// snapshotJSON stores each family as a list of tuples, the value always last.
type snapshotJSON struct {
	Flow     [][]float64 `json:"flow"`
	Arcs     [][]float64 `json:"arcs"`
	Acquired [][]float64 `json:"acquired"`
	Visits   [][]float64 `json:"visits"`
	Hubs     [][]float64 `json:"hubs"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	sj := snapshotJSON{
		Flow:     make([][]float64, 0, len(s.flow)),
		Arcs:     make([][]float64, 0, len(s.arcs)),
		Acquired: make([][]float64, 0, len(s.acquired)),
		Visits:   make([][]float64, 0, len(s.visits)),
		Hubs:     make([][]float64, 0, len(s.hubs)),
	}
	for k, val := range s.flow {
		sj.Flow = append(sj.Flow, []float64{float64(k.From), float64(k.To), float64(k.Vehicle), float64(k.Commodity), val})
	}
	for k, val := range s.arcs {
		sj.Arcs = append(sj.Arcs, []float64{float64(k.From), float64(k.To), float64(k.Vehicle), val})
	}
	for v, val := range s.acquired {
		sj.Acquired = append(sj.Acquired, []float64{float64(v), val})
	}
	for k, val := range s.visits {
		sj.Visits = append(sj.Visits, []float64{float64(k.Vehicle), float64(k.Node), val})
	}
	for i, val := range s.hubs {
		sj.Hubs = append(sj.Hubs, []float64{float64(i), val})
	}
	for _, tuples := range [][][]float64{sj.Flow, sj.Arcs, sj.Acquired, sj.Visits, sj.Hubs} {
		sortTuples(tuples)
	}
	return json.Marshal(sj)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var sj snapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	vals := Values{
		Flow:     make(map[FlowKey]float64, len(sj.Flow)),
		Arcs:     make(map[ArcKey]float64, len(sj.Arcs)),
		Acquired: make(map[int]float64, len(sj.Acquired)),
		Visits:   make(map[VisitKey]float64, len(sj.Visits)),
		Hubs:     make(map[int]float64, len(sj.Hubs)),
	}
	for _, t := range sj.Flow {
		idx, err := tupleIndices(t, 4, "flow")
		if err != nil {
			return err
		}
		vals.Flow[FlowKey{idx[0], idx[1], idx[2], idx[3]}] = t[4]
	}
	for _, t := range sj.Arcs {
		idx, err := tupleIndices(t, 3, "arcs")
		if err != nil {
			return err
		}
		vals.Arcs[ArcKey{idx[0], idx[1], idx[2]}] = t[3]
	}
	for _, t := range sj.Acquired {
		idx, err := tupleIndices(t, 1, "acquired")
		if err != nil {
			return err
		}
		vals.Acquired[idx[0]] = t[1]
	}
	for _, t := range sj.Visits {
		idx, err := tupleIndices(t, 2, "visits")
		if err != nil {
			return err
		}
		vals.Visits[VisitKey{idx[0], idx[1]}] = t[2]
	}
	for _, t := range sj.Hubs {
		idx, err := tupleIndices(t, 1, "hubs")
		if err != nil {
			return err
		}
		vals.Hubs[idx[0]] = t[1]
	}
	*s = *NewSnapshot(vals)
	return nil
}

func tupleIndices(t []float64, keyLen int, family string) ([]int, error) {
	if len(t) != keyLen+1 {
		return nil, errors.Wrapf(ErrInvalidInput, "%s entry %v: expected %d indices and a value", family, t, keyLen)
	}
	idx := make([]int, keyLen)
	for k := 0; k < keyLen; k++ {
		if t[k] != math.Trunc(t[k]) {
			return nil, errors.Wrapf(ErrInvalidInput, "%s entry %v: index %g is not an integer", family, t, t[k])
		}
		idx[k] = int(t[k])
	}
	return idx, nil
}

func sortTuples(tuples [][]float64) {
	sort.Slice(tuples, func(a, b int) bool {
		ta, tb := tuples[a], tuples[b]
		for k := 0; k < len(ta)-1; k++ {
			if ta[k] != tb[k] {
				return ta[k] < tb[k]
			}
		}
		return false
	})
}
