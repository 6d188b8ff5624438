package fvrpt

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"regexp"

	"github.com/pkg/errors"
)

// Layout maps the variable families of the routing model onto one dense solver
// vector: a[v], then x[i,j,v], f[i,j,v,w], Z[v,i] and y[i].
type Layout struct {
	N int
	V int
	W int

	AStart   int
	XStart   int
	FStart   int
	ZStart   int
	YStart   int
	VarCount int
}

func NewLayout(n *Network) Layout {
	l := Layout{N: n.NodeCount(), V: n.VehicleCount(), W: n.CommodityCount()}
	l.AStart = 0
	l.XStart = l.AStart + l.V
	l.FStart = l.XStart + l.N*l.N*l.V
	l.ZStart = l.FStart + l.N*l.N*l.V*l.W
	l.YStart = l.ZStart + l.V*l.N
	l.VarCount = l.YStart + l.N
	return l
}

func (l Layout) AcquiredIndex(v int) int {
	return l.AStart + v
}

func (l Layout) ArcIndex(i, j, v int) int {
	return l.XStart + (i*l.N+j)*l.V + v
}

func (l Layout) FlowIndex(i, j, v, w int) int {
	return l.FStart + ((i*l.N+j)*l.V+v)*l.W + w
}

func (l Layout) VisitIndex(v, i int) int {
	return l.ZStart + v*l.N + i
}

func (l Layout) HubIndex(i int) int {
	return l.YStart + i
}

// Snapshot reads a dense solver vector into a Snapshot. Zero entries are skipped.
func (l Layout) Snapshot(sol []float64) (*Snapshot, error) {
	if len(sol) != l.VarCount {
		return nil, errors.Wrapf(ErrLayoutMismatch, "got %d values, layout has %d", len(sol), l.VarCount)
	}
	vals := Values{
		Flow:     map[FlowKey]float64{},
		Arcs:     map[ArcKey]float64{},
		Acquired: map[int]float64{},
		Visits:   map[VisitKey]float64{},
		Hubs:     map[int]float64{},
	}
	for v := 0; v < l.V; v++ {
		vals.Acquired[v] = sol[l.AcquiredIndex(v)]
		for i := 0; i < l.N; i++ {
			vals.Visits[VisitKey{v, i}] = sol[l.VisitIndex(v, i)]
			for j := 0; j < l.N; j++ {
				vals.Arcs[ArcKey{i, j, v}] = sol[l.ArcIndex(i, j, v)]
				for w := 0; w < l.W; w++ {
					if val := sol[l.FlowIndex(i, j, v, w)]; val != 0 {
						vals.Flow[FlowKey{i, j, v, w}] = val
					}
				}
			}
		}
	}
	for i := 0; i < l.N; i++ {
		vals.Hubs[i] = sol[l.HubIndex(i)]
	}
	return NewSnapshot(vals), nil
}

// Row turns a cut into the sparse index/value form the solver expects.
func (l Layout) Row(c Cut) (ind []int32, val []float64, rhs float64) {
	ind = make([]int32, len(c.Terms))
	val = make([]float64, len(c.Terms))
	for k, t := range c.Terms {
		ind[k] = int32(l.ArcIndex(t.Arc.From, t.Arc.To, t.Arc.Vehicle))
		val[k] = t.Coef
	}
	return ind, val, c.RHS
}

// LoadInstance reads a JSON instance file, stored solution included.
func LoadInstance(path string) (*Instance, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading instance %s", path)
	}
	inst := &Instance{}
	if err := json.Unmarshal(data, inst); err != nil {
		return nil, errors.Wrapf(err, "parsing instance %s", path)
	}
	return inst, nil
}

func WriteInstance(path string, inst *Instance) error {
	return writeJSON(path, inst)
}

func WriteReport(path string, rep *Report) error {
	return writeJSON(path, rep)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	data = []byte(SanitizeJsonArrayLineBreaks(string(data)))
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

var (
	jsonNumbers = regexp.MustCompile(`(-?[0-9][0-9.eE+-]*),\n\s+(-?[0-9])`)
	jsonOpen    = regexp.MustCompile(`\[\n\s+(-?[0-9])`)
	jsonClose   = regexp.MustCompile(`([0-9])\n\s*\]`)
)

// SanitizeJsonArrayLineBreaks puts numeric arrays produced by MarshalIndent back
// on one line, so solution tuples and matrices stay readable. JSON strings never
// hold raw line breaks, so text values are left alone.
func SanitizeJsonArrayLineBreaks(json string) string {
	res := fmt.Sprintf("%s", json)
	for jsonNumbers.MatchString(res) {
		res = jsonNumbers.ReplaceAllString(res, "$1,$2")
	}
	res = jsonOpen.ReplaceAllString(res, "[$1")
	res = jsonClose.ReplaceAllString(res, "$1]")
	return res
}
