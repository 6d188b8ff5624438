package fvrpt

import (
	"fmt"
	"strings"
)

const (
	DEPOT = 0

	VTYPE_SMALL = 0
	VTYPE_BIG   = 1

	CAPACITY_LITERAL   = "literal"
	CAPACITY_CORRECTED = "corrected"

	CUT_REVERSE_ARC = "REVERSE_ARC"
	CUT_SUBTOUR     = "SUBTOUR"

	// NoIndex marks a diagnostic field that does not apply to the violated rule.
	NoIndex = -1
)

type VehicleType struct {
	Capacity      float64 `json:"capacity"`
	Speed         float64 `json:"speed"`
	OperatingCost float64 `json:"operating_cost"`
	FixedCost     float64 `json:"fixed_cost"`
	Count         int     `json:"count"`
}

type Commodity struct {
	Origin      int     `json:"origin"`
	Destination int     `json:"destination"`
	Quantity    float64 `json:"quantity"`
}

// Network is the static description of a fleet routing instance. Node 0 is the
// depot, nodes 1..Hubs are candidate transshipment locations. It is never
// modified once loaded.
type Network struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`

	Hubs         int           `json:"hubs"`
	VehicleTypes []VehicleType `json:"vehicle_types"`
	Commodities  []Commodity   `json:"commodities"`

	HubCosts    []float64   `json:"hub_costs,omitempty"`
	Coordinates [][]float64 `json:"coordinates,omitempty"`
	Distances   [][]float64 `json:"distances,omitempty"`
}

// Instance is a network together with an optional stored candidate, the way
// solved instances are written back to disk.
type Instance struct {
	Network
	Solution *Snapshot `json:"solution,omitempty"`
}

func (n *Network) NodeCount() int {
	return n.Hubs + 1
}

func (n *Network) VehicleCount() int {
	count := 0
	for _, t := range n.VehicleTypes {
		count += t.Count
	}
	return count
}

func (n *Network) CommodityCount() int {
	return len(n.Commodities)
}

// SmallCount is the size of the index range [0, SmallCount) holding the small vehicles.
func (n *Network) SmallCount() int {
	return n.VehicleTypes[VTYPE_SMALL].Count
}

// VehicleType returns the type index of vehicle v, determined solely by its index range.
func (n *Network) VehicleType(v int) int {
	if v < n.SmallCount() {
		return VTYPE_SMALL
	}
	return VTYPE_BIG
}

func (n *Network) Capacity(v int) float64 {
	return n.VehicleTypes[n.VehicleType(v)].Capacity
}

// NonTrivial returns the indices of all commodities with a strictly positive quantity.
func (n *Network) NonTrivial() []int {
	var res []int
	for w, c := range n.Commodities {
		if c.Quantity > 0 {
			res = append(res, w)
		}
	}
	return res
}

// Distance between two hub nodes. The distance matrix only covers nodes 1..Hubs,
// anything else (or a missing matrix) yields 0.
func (n *Network) Distance(i, j int) float64 {
	if i < 1 || j < 1 || i-1 >= len(n.Distances) || j-1 >= len(n.Distances[i-1]) {
		return 0
	}
	return n.Distances[i-1][j-1]
}

func (n *Network) hasNode(i int) bool {
	return i >= 0 && i <= n.Hubs
}

func (n *Network) hasVehicle(v int) bool {
	return v >= 0 && v < n.VehicleCount()
}

func (n *Network) hasCommodity(w int) bool {
	return w >= 0 && w < len(n.Commodities)
}

// Validate fails with ErrInvalidInput on anything the checks cannot work with.
func (n *Network) Validate() error {
	if n == nil {
		return invalidf("network is nil")
	}
	if n.Hubs < 1 {
		return invalidf("network needs at least one hub node, got %d", n.Hubs)
	}
	if len(n.VehicleTypes) != 2 {
		return invalidf("expected 2 vehicle types (small, big), got %d", len(n.VehicleTypes))
	}
	for t, vt := range n.VehicleTypes {
		if vt.Capacity < 0 {
			return invalidf("vehicle type %d has negative capacity %g", t, vt.Capacity)
		}
		if vt.Count < 0 {
			return invalidf("vehicle type %d has negative count %d", t, vt.Count)
		}
	}
	if n.Commodities == nil {
		return invalidf("commodity list is missing")
	}
	for w, c := range n.Commodities {
		if c.Quantity < 0 {
			return invalidf("commodity %d has negative quantity %g", w, c.Quantity)
		}
		if !n.hasNode(c.Origin) || !n.hasNode(c.Destination) {
			return invalidf("commodity %d has origin %d / destination %d outside [0,%d]", w, c.Origin, c.Destination, n.Hubs)
		}
	}
	return nil
}

type ArcKey struct {
	From    int
	To      int
	Vehicle int
}

func (k ArcKey) String() string {
	return fmt.Sprintf("x_%d_%d_%d", k.From, k.To, k.Vehicle)
}

type FlowKey struct {
	From      int
	To        int
	Vehicle   int
	Commodity int
}

type VisitKey struct {
	Vehicle int
	Node    int
}

// Term is one coefficient/variable pair of a cut. Cuts only ever range over arc usage.
type Term struct {
	Arc  ArcKey  `json:"arc"`
	Coef float64 `json:"coef"`
}

// Cut is the linear inequality sum(Coef*x) <= RHS.
type Cut struct {
	Kind    string  `json:"kind"`
	Vehicle int     `json:"vehicle"`
	Terms   []Term  `json:"terms"`
	RHS     float64 `json:"rhs"`
}

// LHS evaluates the left-hand side of the cut at the given candidate.
func (c Cut) LHS(cand Candidate) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.Coef * cand.Arc(t.Arc.From, t.Arc.To, t.Arc.Vehicle)
	}
	return sum
}

// Violated reports whether the candidate breaks the cut by more than tol.
func (c Cut) Violated(cand Candidate, tol float64) bool {
	return c.LHS(cand) > c.RHS+tol
}

func (c Cut) String() string {
	parts := make([]string, len(c.Terms))
	for k, t := range c.Terms {
		if t.Coef == 1 {
			parts[k] = t.Arc.String()
		} else {
			parts[k] = fmt.Sprintf("%g*%s", t.Coef, t.Arc)
		}
	}
	return fmt.Sprintf("%s <= %g", strings.Join(parts, " + "), c.RHS)
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

// Report is the stored outcome of certifying one candidate.
type Report struct {
	Instance    string       `json:"instance"`
	Feasible    bool         `json:"feasible"`
	Violations  []Diagnostic `json:"violations"`
	Unreachable []int        `json:"unreachable"`

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}
