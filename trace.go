package fvrpt

import (
	"sort"

	"github.com/pkg/errors"
)

const (
	MODE_DIRECT        = "DIRECT"
	MODE_TRANSSHIPMENT = "TRANSSHIPMENT"
)

type RouteArc struct {
	From    int `json:"from"`
	To      int `json:"to"`
	Vehicle int `json:"vehicle"`
}

// Route is the explicit path of one commodity through a candidate.
type Route struct {
	Commodity      int        `json:"commodity"`
	Arcs           []RouteArc `json:"arcs"`
	Vehicles       []int      `json:"vehicles"`
	VehicleChanges []int      `json:"vehicle_changes"`
	Length         float64    `json:"length"`
	Mode           string     `json:"mode"`
}

// TraceRoute follows the flow of commodity w from its origin to its destination.
// At every node the first outgoing arc (lowest target node, then lowest vehicle)
// that carries flow on an acquired vehicle is taken; a (node, vehicle) state is
// never entered twice. If no such arc exists the trace fails with
// ErrNoContinuation, which only concerns this commodity.
func TraceRoute(net *Network, sol *Snapshot, w int) (Route, error) {
	if err := net.Validate(); err != nil {
		return Route{}, err
	}
	if !net.hasCommodity(w) {
		return Route{}, invalidf("commodity %d out of range [0,%d)", w, net.CommodityCount())
	}
	com := net.Commodities[w]
	if com.Quantity <= 0 {
		return Route{}, invalidf("commodity %d has no demand", w)
	}

	route := Route{Commodity: w}
	visited := map[reachState]bool{}
	changes := map[int]bool{}
	seenVehicle := map[int]bool{}
	cur, curVehicle := com.Origin, noVehicle

	for cur != com.Destination {
		next, nextVehicle := noVehicle, noVehicle
	search:
		for j := 1; j < net.NodeCount(); j++ {
			for v := 0; v < net.VehicleCount(); v++ {
				if sol.Acquired(v) <= ACTIVE_THRESHOLD || sol.Flow(cur, j, v, w) <= 0 {
					continue
				}
				if visited[reachState{j, v}] {
					continue
				}
				next, nextVehicle = j, v
				break search
			}
		}
		if next == noVehicle {
			return route, errors.Wrapf(ErrNoContinuation, "commodity %d stuck at node %d on the way to %d", w, cur, com.Destination)
		}
		if curVehicle != noVehicle && curVehicle != nextVehicle {
			changes[cur] = true
		}
		if !seenVehicle[nextVehicle] {
			seenVehicle[nextVehicle] = true
			route.Vehicles = append(route.Vehicles, nextVehicle)
		}
		visited[reachState{next, nextVehicle}] = true
		route.Arcs = append(route.Arcs, RouteArc{cur, next, nextVehicle})
		route.Length += net.Distance(cur, next)
		cur, curVehicle = next, nextVehicle
	}

	for node := range changes {
		route.VehicleChanges = append(route.VehicleChanges, node)
	}
	sort.Ints(route.VehicleChanges)
	route.Mode = MODE_DIRECT
	if len(route.Vehicles) > 1 {
		route.Mode = MODE_TRANSSHIPMENT
	}
	Log(LOG_DEBUG, "Commodity %d: %d arcs, vehicles %v, length %g", w, len(route.Arcs), route.Vehicles, route.Length)
	return route, nil
}
