package fvrpt

func testNetwork(hubs, small, big int, commodities ...Commodity) *Network {
	return &Network{
		Name: "test",
		Hubs: hubs,
		VehicleTypes: []VehicleType{
			{Capacity: 10, Speed: 1, Count: small},
			{Capacity: 20, Speed: 1, Count: big},
		},
		Commodities: commodities,
	}
}

// candidate builds values fluently; every unset key stays 0.
type candidate struct {
	vals Values
}

func newCandidate() *candidate {
	return &candidate{vals: Values{
		Flow:     map[FlowKey]float64{},
		Arcs:     map[ArcKey]float64{},
		Acquired: map[int]float64{},
		Visits:   map[VisitKey]float64{},
		Hubs:     map[int]float64{},
	}}
}

// tour sets x for consecutive nodes of a closed tour of vehicle v and marks the
// nodes visited.
func (c *candidate) tour(v int, nodes ...int) *candidate {
	for k, i := range nodes {
		j := nodes[(k+1)%len(nodes)]
		c.vals.Arcs[ArcKey{i, j, v}] = 1
		c.vals.Visits[VisitKey{v, i}] = 1
	}
	return c
}

func (c *candidate) arc(i, j, v int, val float64) *candidate {
	c.vals.Arcs[ArcKey{i, j, v}] = val
	return c
}

func (c *candidate) flow(i, j, v, w int, val float64) *candidate {
	c.vals.Flow[FlowKey{i, j, v, w}] = val
	return c
}

func (c *candidate) acquire(vs ...int) *candidate {
	for _, v := range vs {
		c.vals.Acquired[v] = 1
	}
	return c
}

func (c *candidate) visit(v int, nodes ...int) *candidate {
	for _, i := range nodes {
		c.vals.Visits[VisitKey{v, i}] = 1
	}
	return c
}

func (c *candidate) hub(nodes ...int) *candidate {
	for _, i := range nodes {
		c.vals.Hubs[i] = 1
	}
	return c
}

func (c *candidate) snapshot() *Snapshot {
	return NewSnapshot(c.vals)
}

// directNetwork and directCandidate form the smallest feasible candidate: one
// small vehicle runs 0 -> 1 -> 2 -> 0 and carries commodity 0 from 1 to 2.
func directNetwork() *Network {
	return testNetwork(2, 1, 0, Commodity{Origin: 1, Destination: 2, Quantity: 5})
}

func directCandidate() *candidate {
	return newCandidate().tour(0, 0, 1, 2).flow(1, 2, 0, 0, 1).acquire(0)
}

// transferNetwork and transferCandidate move commodity 0 from 1 to 3, switching
// from vehicle 0 to vehicle 1 at node 2.
func transferNetwork() *Network {
	return testNetwork(3, 2, 0, Commodity{Origin: 1, Destination: 3, Quantity: 5})
}

func transferCandidate() *candidate {
	return newCandidate().
		tour(0, 0, 1, 2).
		tour(1, 0, 2, 3).
		flow(1, 2, 0, 0, 1).
		flow(2, 3, 1, 0, 1).
		acquire(0, 1).
		hub(2)
}

func rules(diags []Diagnostic) []string {
	res := make([]string, len(diags))
	for k, d := range diags {
		res[k] = d.Rule
	}
	return res
}
