// Package driver implements the estimation driver (component C7, §4.7):
// one task validates its config, loads the graph and attributes, resolves
// the effect registry, opens its theta/dzA output streams, runs Algorithm S
// then Algorithm EE, and optionally writes the final simulated network. Per §5, a Task
// owns everything it touches; nothing here is package-global, which is the
// fix the §9 design note asks for in place of the source's process-global
// debug stream.
package driver

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/internal/rng"
	"github.com/gilchrisn/ergm-ee/pkg/config"
	"github.com/gilchrisn/ergm-ee/pkg/effects"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
	"github.com/gilchrisn/ergm-ee/pkg/estimator"
	"github.com/gilchrisn/ergm-ee/pkg/netio"
	"github.com/gilchrisn/ergm-ee/pkg/sampler"
)

// Task is one estimation run: a config, a task id (tagging output files per
// §5/§6), a seed for the task-local PRNG, and a logger scoped to this task.
type Task struct {
	Config *config.Config
	TaskID int
	Seed   int64
	Logger *zap.SugaredLogger
}

// streams bundles the two open output files and their buffered writers so
// Run can flush both per outer iteration (§5: "flushed per outer
// iteration") and close both on exit regardless of how it returns.
type streams struct {
	thetaFile *os.File
	dzAFile   *os.File
	thetaW    *bufio.Writer
	dzAW      *bufio.Writer
}

func (s *streams) flush() error {
	if err := s.thetaW.Flush(); err != nil {
		return err
	}
	return s.dzAW.Flush()
}

func (s *streams) close() {
	s.thetaFile.Close()
	s.dzAFile.Close()
}

// Run executes the task (§4.7): validate, load the graph and attributes,
// resolve effects, open outputs, run S then EE, optionally emit the final
// graph. A config that fails validation returns before any output file is
// created.
// Returns a non-zero-worthy error on any I/O or validation failure; the
// caller (cmd/ee) maps that to the process exit code.
func (t *Task) Run() error {
	cfg := t.Config
	log := t.Logger

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Infow("loading graph", "arclist", cfg.ArclistFile, "task_id", t.TaskID)
	g, err := netio.LoadPajekGraph(cfg.ArclistFile)
	if err != nil {
		return err
	}
	if err := attachAttributes(g, cfg); err != nil {
		return err
	}
	if cfg.UseConditionalEstimation {
		if err := attachZones(g, cfg); err != nil {
			return err
		}
	}

	effs, err := effects.Build(cfg.AllParams(), g)
	if err != nil {
		return err
	}
	p := len(effs)
	log.Infow("resolved effects", "count", p, "n", g.N(), "arcs", g.ArcCount())

	st, err := t.openStreams(effs)
	if err != nil {
		return err
	}
	defer st.close()

	r := rng.New(t.Seed)
	m1 := cfg.Ssteps * g.N() / cfg.SamplerSteps

	seedFlags := sampler.Flags{
		PerformMove:       false,
		UseConditional:    cfg.UseConditionalEstimation,
		ForbidReciprocity: cfg.ForbidReciprocity,
	}
	eeFlags := seedFlags
	eeFlags.PerformMove = true

	var seedSweeper, eeSweeper estimator.Sweeper
	if cfg.UseIFDSampler {
		seedSweeper = &estimator.IFDSweeper{G: g, Effects: effs, IfdK: cfg.IfdK, M: cfg.SamplerSteps, Flags: seedFlags, R: r}
		eeSweeper = &estimator.IFDSweeper{G: g, Effects: effs, IfdK: cfg.IfdK, M: cfg.SamplerSteps, Flags: eeFlags, R: r}
	} else {
		seedSweeper = &estimator.BasicSweeper{G: g, Effects: effs, M: cfg.SamplerSteps, Flags: seedFlags, R: r}
		eeSweeper = &estimator.BasicSweeper{G: g, Effects: effs, M: cfg.SamplerSteps, Flags: eeFlags, R: r}
	}

	log.Infow("running algorithm S", "m1", m1, "samplerSteps", cfg.SamplerSteps)
	seedResult, err := estimator.RunSeed(seedSweeper, p, m1, cfg.SamplerSteps, cfg.ACA_S, func(row estimator.ThetaRow) {
		writeThetaRow(st.thetaW, row)
	})
	if err != nil {
		return err
	}
	if err := st.flush(); err != nil {
		return ergmerr.Wrap(ergmerr.IO, err, "flush after algorithm S")
	}

	log.Infow("running algorithm EE", "outer", cfg.EEsteps, "inner", cfg.EEinnerSteps)
	constants := estimator.Constants{MuFloor: cfg.MuFloor, SigmaThreshold: cfg.SigmaThreshold}
	_, err = estimator.RunEE(
		eeSweeper,
		seedResult.Theta, seedResult.Dmean,
		cfg.EEsteps, cfg.EEinnerSteps, cfg.SamplerSteps,
		cfg.ACA_EE, cfg.CompC, constants,
		cfg.OutputAllSteps,
		func(row estimator.ThetaRow, dzA []float64) {
			writeThetaRow(st.thetaW, row)
			writeDzARow(st.dzAW, row.T, dzA)
		},
		func() {
			if err := st.flush(); err != nil {
				log.Errorw("failed to flush output streams", "error", err)
			}
		},
	)
	if err != nil {
		return err
	}

	if cfg.OutputSimulatedNetwork {
		path := fmt.Sprintf("%s_%d.net", cfg.SimNetFilePrefix, t.TaskID)
		log.Infow("writing simulated network", "path", path)
		if err := netio.SavePajekGraph(g, path); err != nil {
			return err
		}
	}

	log.Infow("task complete", "task_id", t.TaskID)
	return nil
}

func attachAttributes(g *ergmgraph.Graph, cfg *config.Config) error {
	loaders := []struct {
		path string
		load func(string) (map[string]*ergmgraph.Attribute, error)
	}{
		{cfg.BinattrFile, netio.LoadBinaryAttributes},
		{cfg.CatattrFile, netio.LoadCategoricalAttributes},
		{cfg.ContattrFile, netio.LoadContinuousAttributes},
		{cfg.SetattrFile, netio.LoadSetAttributes},
	}
	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		attrs, err := l.load(l.path)
		if err != nil {
			return err
		}
		for _, a := range attrs {
			if a.Len() != g.N() {
				return ergmerr.New(ergmerr.GraphIntegrity, "%s: attribute %q has %d rows, graph has %d nodes", l.path, a.Name, a.Len(), g.N())
			}
			g.AttachAttribute(a)
		}
	}
	return nil
}

func attachZones(g *ergmgraph.Graph, cfg *config.Config) error {
	if cfg.ZoneFile == "" {
		return ergmerr.New(ergmerr.ConfigSemantics, "useConditionalEstimation requires zoneFile")
	}
	zone, maxZone, err := netio.LoadZones(cfg.ZoneFile)
	if err != nil {
		return err
	}
	if len(zone) != g.N() {
		return ergmerr.New(ergmerr.ConfigSemantics, "zoneFile has %d rows, graph has %d nodes", len(zone), g.N())
	}
	prevWaveDegree := ergmgraph.ComputePrevWaveDegree(g, zone)
	g.AttachZones(ergmgraph.NewSnowballZones(zone, maxZone, prevWaveDegree))
	return nil
}

func (t *Task) openStreams(effs []effects.Effect) (*streams, error) {
	cfg := t.Config
	thetaPath := fmt.Sprintf("%s_%d.txt", cfg.ThetaFilePrefix, t.TaskID)
	dzAPath := fmt.Sprintf("%s_%d.txt", cfg.DzAFilePrefix, t.TaskID)

	thetaFile, err := os.Create(thetaPath)
	if err != nil {
		return nil, ergmerr.Wrap(ergmerr.IO, err, "create theta stream %s", thetaPath)
	}
	dzAFile, err := os.Create(dzAPath)
	if err != nil {
		thetaFile.Close()
		return nil, ergmerr.Wrap(ergmerr.IO, err, "create dzA stream %s", dzAPath)
	}

	st := &streams{
		thetaFile: thetaFile,
		dzAFile:   dzAFile,
		thetaW:    bufio.NewWriter(thetaFile),
		dzAW:      bufio.NewWriter(dzAFile),
	}

	names := effectNames(effs)

	thetaHeader := []string{"t"}
	thetaHeader = append(thetaHeader, arcColumnHeader(cfg)...)
	thetaHeader = append(thetaHeader, names...)
	thetaHeader = append(thetaHeader, "AcceptanceRate")
	fmt.Fprintln(st.thetaW, strings.Join(thetaHeader, " "))

	dzAHeader := append([]string{"t"}, names...)
	fmt.Fprintln(st.dzAW, strings.Join(dzAHeader, " "))
	if err := st.flush(); err != nil {
		st.close()
		return nil, ergmerr.Wrap(ergmerr.IO, err, "write output headers")
	}
	return st, nil
}

func arcColumnHeader(cfg *config.Config) []string {
	if cfg.UseIFDSampler {
		return []string{"Arc"}
	}
	return nil
}

func effectNames(effs []effects.Effect) []string {
	names := make([]string, len(effs))
	for i, e := range effs {
		names[i] = e.Name
	}
	return names
}

func writeThetaRow(w *bufio.Writer, row estimator.ThetaRow) {
	fmt.Fprintf(w, "%d", row.T)
	if row.HasArcColumn {
		fmt.Fprintf(w, " %.10g", row.ArcColumn)
	}
	for _, v := range row.Theta {
		fmt.Fprintf(w, " %.10g", v)
	}
	fmt.Fprintf(w, " %.10g\n", row.AcceptanceRate)
}

func writeDzARow(w *bufio.Writer, t int, dzA []float64) {
	fmt.Fprintf(w, "%d", t)
	for _, v := range dzA {
		fmt.Fprintf(w, " %.10g", v)
	}
	fmt.Fprintln(w)
}
