package fvrpt

import (
	"fmt"
	"math"
)

const (
	RULE_ORIGIN_FLOW      = "origin-flow"
	RULE_DESTINATION_FLOW = "destination-flow"
	RULE_CONSERVATION     = "flow-conservation"
	RULE_FLOW_WITHOUT_ARC = "flow-without-arc"
	RULE_HUB_SWITCH       = "hub-switch"
	RULE_CAPACITY         = "capacity"
	RULE_NODE_BALANCE     = "node-balance"
	RULE_ACQUISITION      = "acquisition"
	RULE_SELF_LOOP        = "self-loop"
)

// Diagnostic localizes one violated rule. Index fields that do not apply to the
// rule are NoIndex.
type Diagnostic struct {
	Rule      string   `json:"rule"`
	Node      int      `json:"node"`
	From      int      `json:"from"`
	To        int      `json:"to"`
	Vehicle   int      `json:"vehicle"`
	Commodity int      `json:"commodity"`
	Arcs      []ArcKey `json:"arcs,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Rule, d.Message)
}

func newDiagnostic(rule string) Diagnostic {
	return Diagnostic{Rule: rule, Node: NoIndex, From: NoIndex, To: NoIndex, Vehicle: NoIndex, Commodity: NoIndex}
}

// Verdict is the outcome of a verification. Unreachable lists the commodities for
// which the path search failed; they make the candidate infeasible but are kept
// out of Violations since that search can report false negatives.
type Verdict struct {
	Feasible    bool         `json:"feasible"`
	Violations  []Diagnostic `json:"violations"`
	Unreachable []int        `json:"unreachable"`
}

type checker struct {
	net     *Network
	sol     *Snapshot
	cfg     Config
	n       int
	v       int
	flows   []int
	verdict Verdict
}

// Verify checks a candidate against every structural rule of the routing model.
// It never stops at the first violation, so a single call yields the complete
// report. Only malformed input (ErrInvalidInput) aborts before any rule is
// checked.
//
// Unit flow at origin and destination is compared exactly against 1, so raw
// solver values have to be binarized first (see Snapshot.Binarize).
func Verify(net *Network, sol *Snapshot, cfg Config) (Verdict, error) {
	if err := net.Validate(); err != nil {
		return Verdict{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Verdict{}, err
	}
	if sol == nil {
		return Verdict{}, invalidf("solution is nil")
	}
	if err := sol.CheckRange(net); err != nil {
		return Verdict{}, err
	}

	c := &checker{
		net:     net,
		sol:     sol,
		cfg:     cfg,
		n:       net.NodeCount(),
		v:       net.VehicleCount(),
		flows:   net.NonTrivial(),
		verdict: Verdict{Feasible: true},
	}
	c.originFlow()
	c.destinationFlow()
	c.conservation()
	c.flowWithoutArc()
	c.hubSwitch()
	c.capacity()
	c.nodeBalance()
	c.acquisition()
	c.selfLoops()
	c.paths()

	Log(LOG_INFO, "Verified %s: feasible=%t, %d violations, %d unreachable commodities",
		net.Name, c.verdict.Feasible, len(c.verdict.Violations), len(c.verdict.Unreachable))
	return c.verdict, nil
}

func (c *checker) report(d Diagnostic) {
	Log(LOG_DEBUG, "%s", d)
	c.verdict.Feasible = false
	c.verdict.Violations = append(c.verdict.Violations, d)
}

func (c *checker) originFlow() {
	for _, w := range c.flows {
		o := c.net.Commodities[w].Origin
		sum := 0.0
		for v := 0; v < c.v; v++ {
			for j := 1; j < c.n; j++ {
				if j != o {
					sum += c.sol.Flow(o, j, v, w)
				}
			}
		}
		if sum != 1 {
			d := newDiagnostic(RULE_ORIGIN_FLOW)
			d.Node, d.Commodity = o, w
			d.Message = fmt.Sprintf("Flow balance violated at origin %d for commodity %d: %g units leave.", o, w, sum)
			c.report(d)
		}
	}
}

func (c *checker) destinationFlow() {
	for _, w := range c.flows {
		dst := c.net.Commodities[w].Destination
		sum := 0.0
		for v := 0; v < c.v; v++ {
			for i := 1; i < c.n; i++ {
				if i != dst {
					sum += c.sol.Flow(i, dst, v, w)
				}
			}
		}
		if sum != 1 {
			d := newDiagnostic(RULE_DESTINATION_FLOW)
			d.Node, d.Commodity = dst, w
			d.Message = fmt.Sprintf("Flow balance violated at destination %d for commodity %d: %g units arrive.", dst, w, sum)
			c.report(d)
		}
	}
}

func (c *checker) conservation() {
	for _, w := range c.flows {
		com := c.net.Commodities[w]
		for i := 1; i < c.n; i++ {
			if i == com.Origin || i == com.Destination {
				continue
			}
			out, in := 0.0, 0.0
			for v := 0; v < c.v; v++ {
				for j := 1; j < c.n; j++ {
					if j == i {
						continue
					}
					out += c.sol.Flow(i, j, v, w)
					in += c.sol.Flow(j, i, v, w)
				}
			}
			if !(math.Abs(out-in) < c.cfg.Tolerance) {
				d := newDiagnostic(RULE_CONSERVATION)
				d.Node, d.Commodity = i, w
				d.Message = fmt.Sprintf("Flow conservation violated at node %d for commodity %d: in %g, out %g.", i, w, in, out)
				c.report(d)
			}
		}
	}
}

func (c *checker) flowWithoutArc() {
	for v := 0; v < c.v; v++ {
		for _, w := range c.flows {
			for i := 1; i < c.n; i++ {
				for j := 1; j < c.n; j++ {
					if i == j {
						continue
					}
					if c.sol.Flow(i, j, v, w) > c.sol.Arc(i, j, v)+c.cfg.Tolerance {
						d := newDiagnostic(RULE_FLOW_WITHOUT_ARC)
						d.From, d.To, d.Vehicle, d.Commodity = i, j, v, w
						d.Message = fmt.Sprintf("Flow of commodity %d on arc (%d, %d) in vehicle %d without arc usage.", w, i, j, v)
						c.report(d)
					}
				}
			}
		}
	}
}

func (c *checker) hubSwitch() {
	for v := 0; v < c.v; v++ {
		for _, w := range c.flows {
			com := c.net.Commodities[w]
			for j := 1; j < c.n; j++ {
				if j == com.Origin || j == com.Destination || c.sol.Hub(j) >= ACTIVE_THRESHOLD {
					continue
				}
				balance := 0.0
				for i := 1; i < c.n; i++ {
					if i != j {
						balance += c.sol.Flow(i, j, v, w) - c.sol.Flow(j, i, v, w)
					}
				}
				if !(math.Abs(balance) < c.cfg.Tolerance) {
					d := newDiagnostic(RULE_HUB_SWITCH)
					d.Node, d.Vehicle, d.Commodity = j, v, w
					d.Message = fmt.Sprintf("Flow balance at non-transshipment node %d violated for commodity %d in vehicle %d.", j, w, v)
					c.report(d)
				}
			}
		}
	}
}

// capacity compares the load of each arc with the capacity of the carrying
// vehicle. CAPACITY_LITERAL reproduces the model check as published, which tests
// the small-vehicle index range in both branches: small vehicles are held to
// both capacities and big vehicles are never checked. CAPACITY_CORRECTED holds
// every vehicle to the capacity of its own type.
func (c *checker) capacity() {
	small := c.net.SmallCount()
	for v := 0; v < c.v; v++ {
		for i := 1; i < c.n; i++ {
			for j := 1; j < c.n; j++ {
				if i == j {
					continue
				}
				load := 0.0
				for _, w := range c.flows {
					load += c.net.Commodities[w].Quantity * c.sol.Flow(i, j, v, w)
				}
				x := c.sol.Arc(i, j, v)
				switch c.cfg.CapacityMode {
				case CAPACITY_LITERAL:
					if v < small {
						c.checkLoad(i, j, v, load, c.net.VehicleTypes[VTYPE_SMALL].Capacity, x)
					}
					if v < small {
						c.checkLoad(i, j, v, load, c.net.VehicleTypes[VTYPE_BIG].Capacity, x)
					}
				case CAPACITY_CORRECTED:
					c.checkLoad(i, j, v, load, c.net.Capacity(v), x)
				}
			}
		}
	}
}

func (c *checker) checkLoad(i, j, v int, load, capacity, x float64) {
	if load > capacity*x+c.cfg.Tolerance {
		d := newDiagnostic(RULE_CAPACITY)
		d.From, d.To, d.Vehicle = i, j, v
		d.Message = fmt.Sprintf("Capacity constraint violated on arc (%d, %d) for vehicle %d: load %g, capacity %g.", i, j, v, load, capacity*x)
		c.report(d)
	}
}

func (c *checker) nodeBalance() {
	for v := 0; v < c.v; v++ {
		for i := 0; i < c.n; i++ {
			out, in := 0.0, 0.0
			for j := 0; j < c.n; j++ {
				if i == j {
					continue
				}
				out += c.sol.Arc(i, j, v)
				in += c.sol.Arc(j, i, v)
			}
			if !(math.Abs(out-in) < c.cfg.Tolerance) {
				d := newDiagnostic(RULE_NODE_BALANCE)
				d.Node, d.Vehicle = i, v
				d.Message = fmt.Sprintf("Node balance violated for vehicle %d at node %d: in %g, out %g.", v, i, in, out)
				c.report(d)
			}
		}
	}
}

// acquisition reports one diagnostic per unacquired vehicle, listing every arc it uses.
func (c *checker) acquisition() {
	for v := 0; v < c.v; v++ {
		if c.sol.Acquired(v) >= ACTIVE_THRESHOLD {
			continue
		}
		var arcs []ArcKey
		for i := 0; i < c.n; i++ {
			for j := 0; j < c.n; j++ {
				if c.sol.Arc(i, j, v) > c.cfg.Tolerance {
					arcs = append(arcs, ArcKey{i, j, v})
				}
			}
		}
		if len(arcs) > 0 {
			d := newDiagnostic(RULE_ACQUISITION)
			d.Vehicle, d.Arcs = v, arcs
			d.Message = fmt.Sprintf("Vehicle %d traverses %d arcs without being acquired, first (%d, %d).", v, len(arcs), arcs[0].From, arcs[0].To)
			c.report(d)
		}
	}
}

func (c *checker) selfLoops() {
	for v := 0; v < c.v; v++ {
		for i := 0; i < c.n; i++ {
			if c.sol.Arc(i, i, v) > c.cfg.Tolerance {
				d := newDiagnostic(RULE_SELF_LOOP)
				d.From, d.To, d.Vehicle = i, i, v
				d.Message = fmt.Sprintf("Vehicle %d uses self-loop at node %d.", v, i)
				c.report(d)
			}
			for _, w := range c.flows {
				if c.sol.Flow(i, i, v, w) > c.cfg.Tolerance {
					d := newDiagnostic(RULE_SELF_LOOP)
					d.From, d.To, d.Vehicle, d.Commodity = i, i, v, w
					d.Message = fmt.Sprintf("Commodity %d flows on self-loop at node %d in vehicle %d.", w, i, v)
					c.report(d)
				}
			}
		}
	}
}

// paths runs the reachability search for every commodity. A failure marks the
// candidate infeasible without adding a diagnostic.
func (c *checker) paths() {
	for _, w := range c.flows {
		com := c.net.Commodities[w]
		if !IsReachable(c.sol, w, com.Origin, com.Destination, c.n, c.v) {
			Log(LOG_DEBUG, "No continuous path found for commodity %d (%d -> %d)", w, com.Origin, com.Destination)
			c.verdict.Feasible = false
			c.verdict.Unreachable = append(c.verdict.Unreachable, w)
		}
	}
}
