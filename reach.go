package fvrpt

const (
	// FLOW_THRESHOLD binarizes raw or near-binary flow values during traversal.
	FLOW_THRESHOLD = 0.05
	// ACTIVE_THRESHOLD decides whether a hub activation or a vehicle acquisition counts as set.
	ACTIVE_THRESHOLD = 0.5

	noVehicle = -1
)

// FlowSource is what the reachability search reads from a candidate.
type FlowSource interface {
	Flow(i, j, v, w int) float64
	Hub(i int) float64
}

type reachState struct {
	node    int
	vehicle int
}

// IsReachable reports whether the flow of commodity w connects origin to
// destination, changing the carrying vehicle only at active hubs.
//
// The search is an iterative DFS over (node, vehicle) states, but the visited
// set holds nodes only: once a node is expanded it is never expanded again, not
// even when reached on another vehicle. A commodity that has to pass the same
// node twice on different vehicles is therefore reported unreachable. The
// verifier treats a negative answer as advisory for exactly this reason.
func IsReachable(src FlowSource, w, origin, destination, nodeCount, vehicleCount int) bool {
	visited := make([]bool, nodeCount)
	stack := []reachState{{origin, noVehicle}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.node == destination {
			return true
		}
		if cur.node < 0 || cur.node >= nodeCount || visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		canSwitch := src.Hub(cur.node) > ACTIVE_THRESHOLD
		for j := 0; j < nodeCount; j++ {
			for v := 0; v < vehicleCount; v++ {
				if src.Flow(cur.node, j, v, w) <= FLOW_THRESHOLD {
					continue
				}
				if cur.vehicle == noVehicle || cur.vehicle == v || canSwitch {
					stack = append(stack, reachState{j, v})
				}
			}
		}
	}
	return false
}
