// Package lazycb connects the separation engine to a Gurobi model through a
// MIPSOL callback.
package lazycb

import (
	"git.solver4all.com/azaryc2s/fvrpt"
	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"github.com/pkg/errors"
)

// Data is passed to the solver as callback user data.
type Data struct {
	Layout    fvrpt.Layout
	Separator *fvrpt.Separator

	Posted int
	Failed int
}

// Callback separates every integer-feasible candidate and posts the resulting
// cuts as lazy constraints. Errors are logged, never returned to the solver.
func Callback(model *gurobi.Model, cbdata gurobi.CPVoid, where int32, usrdata interface{}) int32 {
	if where != gurobi.CB_MIPSOL {
		return 0
	}
	data := usrdata.(*Data)

	sol, err := gurobi.CbGetDblArray(cbdata, where, gurobi.CB_MIPSOL_SOL, data.Layout.VarCount)
	if err != nil {
		fvrpt.Log(fvrpt.LOG_ERROR, "Couldn't read candidate: %s", err.Error())
		return 0
	}
	snap, err := data.Layout.Snapshot(sol)
	if err != nil {
		fvrpt.Log(fvrpt.LOG_ERROR, "%s", err.Error())
		return 0
	}

	for _, cut := range data.Separator.Separate(snap) {
		ind, val, rhs := data.Layout.Row(cut)
		if err := gurobi.CbLazy(cbdata, len(ind), ind, val, gurobi.LESS_EQUAL, rhs); err != nil {
			data.Failed++
			fvrpt.Log(fvrpt.LOG_ERROR, "Couldn't add %s cut %s: %s", cut.Kind, cut, err.Error())
			continue
		}
		data.Posted++
	}
	return 0
}

// Attach enables lazy constraints on the model and registers Callback with data.
func Attach(model *gurobi.Model, data *Data) error {
	if err := model.SetIntParam(gurobi.INT_PAR_LAZYCONSTRAINTS, 1); err != nil {
		return errors.Wrap(err, "enabling lazy constraints")
	}
	if err := model.SetCallbackFuncGo(Callback, data); err != nil {
		return errors.Wrap(err, "registering callback")
	}
	return nil
}

// Capture reads the final solution vector of an optimized model and binarizes
// it at threshold for certification, normally Config.Threshold.
func Capture(model *gurobi.Model, layout fvrpt.Layout, threshold float64) (*fvrpt.Snapshot, error) {
	sol, err := model.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(layout.VarCount))
	if err != nil {
		return nil, errors.Wrap(err, "reading solution values")
	}
	snap, err := layout.Snapshot(sol)
	if err != nil {
		return nil, err
	}
	return snap.Binarize(threshold), nil
}
