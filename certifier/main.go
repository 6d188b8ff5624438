/* Copyright 2021, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */
/* Copyright 2021, Gurobi Optimization, LLC */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"git.solver4all.com/azaryc2s/fvrpt"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var cfg = fvrpt.DefaultConfig()

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fvrpt.Log(fvrpt.LOG_ERROR, "%s", err.Error())
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Writer = out
	app.Name = "certifier"
	app.Usage = "Certify stored fleet routing candidates and derive separation cuts from them"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "", Usage: "Path to an HCL configuration file"},
		cli.IntFlag{Name: "log", Value: fvrpt.LOG_INFO, Usage: "Level of the logging output. Higher value is more verbose. Range 1-4"},
	}
	app.Before = setup
	app.Commands = []cli.Command{
		{
			Name:  "verify",
			Usage: "Check the stored solution against every structural rule and write a report",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "input", Value: "input.json", Usage: "Path to the input instance"},
				cli.StringFlag{Name: "output", Value: "", Usage: "Path to the report file. By default the report is printed"},
				cli.BoolFlag{Name: "binarize", Usage: "Threshold the stored values before checking"},
			},
			Action: verify,
		},
		{
			Name:  "separate",
			Usage: "Print the reverse-arc and subtour cuts the stored solution violates",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "input", Value: "input.json", Usage: "Path to the input instance"},
			},
			Action: separate,
		},
		{
			Name:  "trace",
			Usage: "Print the route of every commodity through the stored solution",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "input", Value: "input.json", Usage: "Path to the input instance"},
			},
			Action: trace,
		},
	}
	return app
}

func setup(c *cli.Context) error {
	cfg = fvrpt.DefaultConfig()
	if path := c.GlobalString("config"); path != "" {
		loaded, err := fvrpt.LoadConfig(path)
		if err != nil {
			fvrpt.InitLoggers(fvrpt.LOG_ERROR, os.Stderr)
			return err
		}
		cfg = loaded
	}
	if c.GlobalIsSet("log") || c.GlobalString("config") == "" {
		cfg.LogLevel = c.GlobalInt("log")
	}
	fvrpt.InitLoggers(cfg.LogLevel, os.Stderr)
	return nil
}

func loadSolved(path string) (*fvrpt.Instance, error) {
	inst, err := fvrpt.LoadInstance(path)
	if err != nil {
		return nil, err
	}
	if inst.Solution == nil {
		return nil, errors.Errorf("%s holds no solution", path)
	}
	return inst, nil
}

func verify(c *cli.Context) error {
	inst, err := loadSolved(c.String("input"))
	if err != nil {
		return err
	}
	sol := inst.Solution
	if c.Bool("binarize") {
		sol = sol.Binarize(cfg.Threshold)
	}

	start := time.Now()
	verdict, err := fvrpt.Verify(&inst.Network, sol, cfg)
	if err != nil {
		return errors.Wrapf(err, "verifying %s", c.String("input"))
	}
	rep := &fvrpt.Report{
		Instance:    inst.Name,
		Feasible:    verdict.Feasible,
		Violations:  verdict.Violations,
		Unreachable: verdict.Unreachable,
		Time:        time.Since(start).String(),
		System:      fvrpt.CollectSysInfo(),
		Comment:     fmt.Sprintf("Capacity=%s, Tolerance=%g, Binarized=%t", cfg.CapacityMode, cfg.Tolerance, c.Bool("binarize")),
	}

	if out := c.String("output"); out != "" {
		return fvrpt.WriteReport(out, rep)
	}
	data, err := json.MarshalIndent(rep, "", "\t")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, fvrpt.SanitizeJsonArrayLineBreaks(string(data)))
	return nil
}

func separate(c *cli.Context) error {
	inst, err := loadSolved(c.String("input"))
	if err != nil {
		return err
	}
	sep, err := fvrpt.NewSeparator(&inst.Network, cfg)
	if err != nil {
		return err
	}
	cuts := sep.Separate(inst.Solution)
	for _, cut := range cuts {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", cut.Kind, cut)
	}
	if t, ok := sep.FirstConsistent(); ok {
		fmt.Fprintf(c.App.Writer, "CONSISTENT after %s\n", t)
	} else {
		fmt.Fprintf(c.App.Writer, "%d cuts\n", len(cuts))
	}
	return nil
}

func trace(c *cli.Context) error {
	inst, err := loadSolved(c.String("input"))
	if err != nil {
		return err
	}
	for _, w := range inst.NonTrivial() {
		route, err := fvrpt.TraceRoute(&inst.Network, inst.Solution, w)
		if err != nil {
			if errors.Is(err, fvrpt.ErrNoContinuation) {
				fmt.Fprintf(c.App.Writer, "%d: %s\n", w, err.Error())
				continue
			}
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d: %s arcs=%v vehicles=%v changes=%v length=%g\n",
			w, route.Mode, route.Arcs, route.Vehicles, route.VehicleChanges, route.Length)
	}
	return nil
}
