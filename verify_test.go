package fvrpt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyDirectDelivery(t *testing.T) {
	verdict, err := Verify(directNetwork(), directCandidate().snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.True(t, verdict.Feasible)
	assert.Empty(t, verdict.Violations)
	assert.Empty(t, verdict.Unreachable)
}

func TestVerifyUnacquiredVehicle(t *testing.T) {
	c := directCandidate()
	delete(c.vals.Acquired, 0)

	verdict, err := Verify(directNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, verdict.Feasible)
	require.Len(t, verdict.Violations, 1)
	d := verdict.Violations[0]
	assert.Equal(t, RULE_ACQUISITION, d.Rule)
	assert.Equal(t, 0, d.Vehicle)
	assert.ElementsMatch(t, []ArcKey{{0, 1, 0}, {1, 2, 0}, {2, 0, 0}}, d.Arcs)
}

func TestVerifyTransferAtHub(t *testing.T) {
	verdict, err := Verify(transferNetwork(), transferCandidate().snapshot(), DefaultConfig())
	require.NoError(t, err)
	assert.True(t, verdict.Feasible, "violations: %v", verdict.Violations)
}

func TestVerifyTransferAtInactiveHub(t *testing.T) {
	c := transferCandidate()
	delete(c.vals.Hubs, 2)

	verdict, err := Verify(transferNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, verdict.Feasible)
	assert.Equal(t, []string{RULE_HUB_SWITCH, RULE_HUB_SWITCH}, rules(verdict.Violations))
	for _, d := range verdict.Violations {
		assert.Equal(t, 2, d.Node)
		assert.Equal(t, 0, d.Commodity)
	}
	assert.Equal(t, []int{0}, verdict.Unreachable)
}

func TestVerifyConservation(t *testing.T) {
	c := transferCandidate()
	delete(c.vals.Flow, FlowKey{2, 3, 1, 0})

	verdict, err := Verify(transferNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, verdict.Feasible)
	assert.Contains(t, rules(verdict.Violations), RULE_DESTINATION_FLOW)
	assert.Contains(t, rules(verdict.Violations), RULE_CONSERVATION)
	for _, d := range verdict.Violations {
		if d.Rule == RULE_CONSERVATION {
			assert.Equal(t, 2, d.Node)
		}
	}
}

func TestVerifyFlowWithoutArc(t *testing.T) {
	// The vehicle runs 0 -> 2 -> 1 -> 0, so arc (1, 2) carries flow it does not use.
	sol := newCandidate().tour(0, 0, 2, 1).flow(1, 2, 0, 0, 1).acquire(0).snapshot()

	verdict, err := Verify(directNetwork(), sol, DefaultConfig())
	require.NoError(t, err)
	require.Contains(t, rules(verdict.Violations), RULE_FLOW_WITHOUT_ARC)

	for _, d := range verdict.Violations {
		switch d.Rule {
		case RULE_FLOW_WITHOUT_ARC:
			assert.Equal(t, []int{1, 2, 0, 0}, []int{d.From, d.To, d.Vehicle, d.Commodity})
		case RULE_CAPACITY:
			assert.Equal(t, []int{1, 2, 0}, []int{d.From, d.To, d.Vehicle})
		default:
			t.Errorf("unexpected diagnostic %s", d)
		}
	}
}

func TestVerifyCapacityModes(t *testing.T) {
	tests := []struct {
		name      string
		small     int
		big       int
		vehicle   int
		quantity  float64
		literal   int
		corrected int
	}{
		{"small within capacity", 1, 1, 0, 8, 0, 0},
		{"small above own capacity", 1, 1, 0, 15, 1, 1},
		{"small above both capacities", 1, 1, 0, 25, 2, 1},
		{"big above own capacity", 1, 1, 1, 30, 0, 1},
		{"big within capacity", 1, 1, 1, 18, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := testNetwork(2, tt.small, tt.big, Commodity{Origin: 1, Destination: 2, Quantity: tt.quantity})
			sol := newCandidate().tour(tt.vehicle, 0, 1, 2).flow(1, 2, tt.vehicle, 0, 1).acquire(tt.vehicle).snapshot()

			for mode, want := range map[string]int{CAPACITY_LITERAL: tt.literal, CAPACITY_CORRECTED: tt.corrected} {
				cfg := DefaultConfig()
				cfg.CapacityMode = mode
				verdict, err := Verify(net, sol, cfg)
				require.NoError(t, err)

				got := 0
				for _, d := range verdict.Violations {
					require.Equal(t, RULE_CAPACITY, d.Rule, "mode %s", mode)
					assert.Equal(t, []int{1, 2, tt.vehicle}, []int{d.From, d.To, d.Vehicle})
					got++
				}
				assert.Equal(t, want, got, "mode %s", mode)
				assert.Equal(t, want == 0, verdict.Feasible, "mode %s", mode)
			}
		})
	}
}

func TestVerifyDefaultChecksBigVehicleCapacity(t *testing.T) {
	net := testNetwork(2, 1, 1, Commodity{Origin: 1, Destination: 2, Quantity: 500})
	sol := newCandidate().tour(1, 0, 1, 2).flow(1, 2, 1, 0, 1).acquire(1).snapshot()

	verdict, err := Verify(net, sol, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, verdict.Feasible)
	require.Equal(t, []string{RULE_CAPACITY}, rules(verdict.Violations))
	assert.Equal(t, 1, verdict.Violations[0].Vehicle)
}

func TestVerifyNodeBalance(t *testing.T) {
	c := directCandidate()
	delete(c.vals.Arcs, ArcKey{2, 0, 0})

	verdict, err := Verify(directNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	var nodes []int
	for _, d := range verdict.Violations {
		require.Equal(t, RULE_NODE_BALANCE, d.Rule)
		nodes = append(nodes, d.Node)
	}
	assert.Equal(t, []int{0, 2}, nodes)
}

func TestVerifySelfLoop(t *testing.T) {
	c := directCandidate().arc(1, 1, 0, 1)

	verdict, err := Verify(directNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{RULE_SELF_LOOP}, rules(verdict.Violations))
}

func TestVerifyOriginFlowIsExact(t *testing.T) {
	c := directCandidate().flow(1, 2, 0, 0, 0.9999999)

	verdict, err := Verify(directNetwork(), c.snapshot(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{RULE_ORIGIN_FLOW, RULE_DESTINATION_FLOW}, rules(verdict.Violations))

	verdict, err = Verify(directNetwork(), c.snapshot().Binarize(FLOW_THRESHOLD), DefaultConfig())
	require.NoError(t, err)
	assert.True(t, verdict.Feasible)
}

func TestVerifyIgnoresTrivialCommodities(t *testing.T) {
	net := directNetwork()
	net.Commodities = append(net.Commodities, Commodity{Origin: 2, Destination: 1, Quantity: 0})

	verdict, err := Verify(net, directCandidate().snapshot(), DefaultConfig())
	require.NoError(t, err)
	assert.True(t, verdict.Feasible)
}

func TestVerifyUnreachableIsAdvisory(t *testing.T) {
	// Commodity 0 has to pass node 2 twice on different vehicles. Every
	// structural rule holds, only the path search fails.
	net := testNetwork(4, 2, 0, Commodity{Origin: 1, Destination: 4, Quantity: 1})
	sol := newCandidate().
		tour(0, 0, 1, 2, 3).
		tour(1, 0, 3, 2, 4).
		flow(1, 2, 0, 0, 1).
		flow(2, 3, 0, 0, 1).
		flow(3, 2, 1, 0, 1).
		flow(2, 4, 1, 0, 1).
		acquire(0, 1).
		hub(3).
		snapshot()

	verdict, err := Verify(net, sol, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, verdict.Feasible)
	assert.Empty(t, verdict.Violations)
	assert.Equal(t, []int{0}, verdict.Unreachable)
}

func TestVerifyIsIdempotent(t *testing.T) {
	c := transferCandidate()
	delete(c.vals.Hubs, 2)
	delete(c.vals.Acquired, 1)
	net, sol := transferNetwork(), c.snapshot()

	first, err := Verify(net, sol, DefaultConfig())
	require.NoError(t, err)
	second, err := Verify(net, sol, DefaultConfig())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("verdicts differ (-first +second):\n%s", diff)
	}
}

func TestVerifyMalformedInput(t *testing.T) {
	good := directCandidate().snapshot()
	tests := []struct {
		name string
		net  *Network
		sol  *Snapshot
		cfg  func(*Config)
	}{
		{name: "nil network", sol: good},
		{name: "nil solution", net: directNetwork()},
		{name: "single vehicle type", net: &Network{Hubs: 2, VehicleTypes: []VehicleType{{Capacity: 1, Count: 1}}, Commodities: []Commodity{}}, sol: good},
		{name: "missing commodities", net: testNetwork(2, 1, 0), sol: good},
		{name: "negative quantity", net: testNetwork(2, 1, 0, Commodity{1, 2, -1}), sol: good},
		{name: "negative capacity", net: func() *Network {
			n := directNetwork()
			n.VehicleTypes[VTYPE_BIG].Capacity = -1
			return n
		}(), sol: good},
		{name: "origin out of range", net: testNetwork(2, 1, 0, Commodity{5, 2, 1}), sol: good},
		{name: "key out of range", net: directNetwork(), sol: directCandidate().arc(0, 1, 3, 1).snapshot()},
		{name: "unknown capacity mode", net: directNetwork(), sol: good, cfg: func(c *Config) { c.CapacityMode = "loose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			_, err := Verify(tt.net, tt.sol, cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), err.Error())
		})
	}
}
