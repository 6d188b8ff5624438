/* Copyright 2021, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"git.solver4all.com/azaryc2s/fvrpt"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var header = []string{"Name", "Feasible", "Violations", "Unreachable", "Comment"}

type row struct {
	name        string
	feasible    bool
	violations  int
	unreachable int
	comment     string
	skip        bool
}

func (r row) record() []string {
	if r.skip {
		return []string{r.name, "", "", "", fmt.Sprintf("No solution for %s", r.name)}
	}
	return []string{r.name, strconv.FormatBool(r.feasible), strconv.Itoa(r.violations), strconv.Itoa(r.unreachable), r.comment}
}

func main() {
	workers := flag.Int("workers", runtime.NumCPU(), "Number of instances verified in parallel. Values below 1 use all CPUs")
	configF := flag.String("config", "", "Path to an HCL configuration file")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Printf("No directory passed!")
		return
	}
	cfg := fvrpt.DefaultConfig()
	if *configF != "" {
		var err error
		cfg, err = fvrpt.LoadConfig(*configF)
		if err != nil {
			log.Printf("Couldn't load config: %s\n", err.Error())
			return
		}
	}
	if err := run(os.Stdout, flag.Arg(0), *workers, cfg); err != nil {
		log.Printf("%s\n", err.Error())
	}
}

// run verifies every JSON instance in dirName and writes one CSV row per file,
// in directory order.
func run(out io.Writer, dirName string, workers int, cfg fvrpt.Config) error {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	dir, err := ioutil.ReadDir(dirName)
	if err != nil {
		return errors.Wrapf(err, "couldn't open directory %s", dirName)
	}
	var files []string
	for _, f := range dir {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			files = append(files, filepath.Join(dirName, f.Name()))
		}
	}

	rows := make([]row, len(files))
	var g errgroup.Group
	g.SetLimit(workers)
	for k, fileName := range files {
		k, fileName := k, fileName
		g.Go(func() error {
			rows[k] = analyze(fileName, cfg)
			return nil
		})
	}
	g.Wait()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func analyze(fileName string, cfg fvrpt.Config) row {
	inst, err := fvrpt.LoadInstance(fileName)
	if err != nil {
		return row{name: filepath.Base(fileName), comment: err.Error()}
	}
	r := row{name: inst.Name}
	if inst.Solution == nil {
		r.skip = true
		return r
	}
	verdict, err := fvrpt.Verify(&inst.Network, inst.Solution.Binarize(cfg.Threshold), cfg)
	if err != nil {
		r.comment = err.Error()
		return r
	}
	r.feasible = verdict.Feasible
	r.violations = len(verdict.Violations)
	r.unreachable = len(verdict.Unreachable)
	if len(verdict.Violations) > 0 {
		r.comment = verdict.Violations[0].String()
	}
	return r
}
