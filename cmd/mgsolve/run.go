// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintbenjamin/gpt/config"
	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/mg"
	"github.com/saintbenjamin/gpt/operator"
	"github.com/saintbenjamin/gpt/wilson"
)

const (
	smootherOnly = "smoother"
	twoLevel     = "2lvl"
	threeLevel   = "3lvl"
)

// scenarios lists the preconditioners in the order compare runs them.
var scenarios = []string{smootherOnly, twoLevel, threeLevel}

// maxEps2 bounds the relative squared residual of an accepted solve.
const maxEps2 = 1e-12

type result struct {
	scenario   string
	prec       string
	iterations int
	eps2       float64
	setup      []mg.Timing
	solve      time.Duration
}

type runner struct {
	cfg       *config.Config
	logger    zerolog.Logger
	observers []inverter.Observer
}

func newRunner(cfg *config.Config, logger zerolog.Logger) *runner {
	return &runner{cfg: cfg, logger: logger}
}

// cycleOptions returns the options shared by every solver. The cycle
// builders name the solvers of a cycle themselves.
func (r *runner) cycleOptions() []inverter.Option {
	opts := []inverter.Option{inverter.WithLogger(r.logger)}
	for _, o := range r.observers {
		opts = append(opts, inverter.WithObserver(o))
	}
	return opts
}

func (r *runner) solverOptions(name string) []inverter.Option {
	return append(r.cycleOptions(), inverter.WithName(name))
}

func (r *runner) setupOptions() []mg.Option {
	return []mg.Option{
		mg.WithRNG(lattice.NewRNG(r.cfg.Seed)),
		mg.WithLogger(r.logger),
		mg.WithSolverOptions(r.cycleOptions()...),
	}
}

// run solves with the preconditioner of the named scenario.
func (r *runner) run(ctx context.Context, scenario string) (result, error) {
	g, err := r.cfg.Grid()
	if err != nil {
		return result{}, err
	}
	wp, err := r.cfg.WilsonParams()
	if err != nil {
		return result{}, err
	}
	scale, err := r.cfg.GaugeScale()
	if err != nil {
		return result{}, err
	}
	if g.Precision() == lattice.Single {
		return runOn[complex64](ctx, r, g, wp, scale, scenario)
	}
	return runOn[complex128](ctx, r, g, wp, scale, scenario)
}

func runOn[T lattice.Scalar](ctx context.Context, r *runner, g *lattice.Grid, wp wilson.Params, scale float64, scenario string) (result, error) {
	u := wilson.RandomGauge[T](g, lattice.NewRNG(r.cfg.Seed), scale)
	w, err := wilson.New(u, wp)
	if err != nil {
		return result{}, err
	}
	r.logger.Info().Str("scenario", scenario).
		Stringer("grid", g).
		Float64("plaquette", u.Plaquette()).
		Msg("operator ready")

	prec, setup, err := preconditioner(ctx, r, w, scenario)
	if err != nil {
		return result{}, err
	}
	spec, err := r.cfg.Solver("outer")
	if err != nil {
		return result{}, err
	}
	outer, err := inverter.New(operator.Operator[T](w), spec,
		append(r.solverOptions("outer"), inverter.WithObserver(inverter.NewLoggingObserver(r.logger)))...)
	if err != nil {
		return result{}, err
	}
	outer = outer.Modified(prec)

	src := operator.NewField[T](w)
	for i := range src.Data {
		src.Data[i] = 1
	}
	sol := src.Like()
	start := time.Now()
	if err := outer.Solve(sol, src); err != nil {
		return result{}, err
	}
	res := result{
		scenario: scenario,
		prec:     prec.Name(),
		setup:    setup,
		solve:    time.Since(start),
	}
	resid := src.Like()
	operator.Residual[T](w, resid, sol, src)
	res.eps2 = resid.Norm2() / src.Norm2()
	if rec, ok := outer.History().Last(); ok {
		res.iterations = rec.Iterations
	}
	return res, nil
}

// preconditioner builds the preconditioner of the scenario for w and
// returns it with the setup timings of its hierarchy.
func preconditioner[T lattice.Scalar](ctx context.Context, r *runner, w *wilson.Operator[T], scenario string) (inverter.Inverter[T], []mg.Timing, error) {
	var specs [3]inverter.Spec
	for i, name := range []string{"smoother", "coarsest", "wrapper"} {
		var err error
		if specs[i], err = r.cfg.Solver(name); err != nil {
			return nil, nil, err
		}
	}
	smoother, coarsest, wrapper := specs[0], specs[1], specs[2]

	switch scenario {
	case smootherOnly:
		s, err := inverter.New(operator.Operator[T](w), smoother, r.solverOptions("smoother")...)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case twoLevel:
		p, err := r.cfg.SetupParams(twoLevel)
		if err != nil {
			return nil, nil, err
		}
		h, err := mg.Setup[T](ctx, w, p, r.setupOptions()...)
		if err != nil {
			return nil, nil, err
		}
		c, err := mg.BuildCycle(h, mg.CycleParams{Coarsest: coarsest, Smoother: smoother, ResidualChecks: true}, r.cycleOptions()...)
		if err != nil {
			return nil, nil, err
		}
		return c, h.Times(), nil

	case threeLevel:
		p, err := r.cfg.SetupParams(threeLevel)
		if err != nil {
			return nil, nil, err
		}
		if lattice.PrecisionOf[T]() == lattice.Single {
			h, err := mg.Setup[T](ctx, w, p, r.setupOptions()...)
			if err != nil {
				return nil, nil, err
			}
			k, err := mg.BuildKCycle(h, coarsest, smoother, wrapper, r.cycleOptions()...)
			if err != nil {
				return nil, nil, err
			}
			return k, h.Times(), nil
		}
		h, err := mg.Setup[complex64](ctx, wilson.Converted[complex64](w), p, r.setupOptions()...)
		if err != nil {
			return nil, nil, err
		}
		k, err := mg.BuildKCycle(h, coarsest, smoother, wrapper, r.cycleOptions()...)
		if err != nil {
			return nil, nil, err
		}
		return inverter.NewMixedPrecision[T](inverter.Inverter[complex64](k)), h.Times(), nil
	}
	return nil, nil, lattice.NewConfigError("mgsolve", "scenario", "unknown scenario %q", scenario)
}

// compare checks the accuracy of every result and that the multigrid
// preconditioners need no more outer iterations than the smoother.
func compare(results []result) error {
	byName := make(map[string]result, len(results))
	for _, res := range results {
		if res.eps2 >= maxEps2 {
			return fmt.Errorf("%s: relative squared residual %g not below %g", res.scenario, res.eps2, maxEps2)
		}
		byName[res.scenario] = res
	}
	base, ok := byName[smootherOnly]
	if !ok {
		return nil
	}
	if mg2, ok := byName[twoLevel]; ok && mg2.iterations > base.iterations {
		return fmt.Errorf("two-level V-cycle needs %d iterations, the smoother %d", mg2.iterations, base.iterations)
	}
	if mg3, ok := byName[threeLevel]; ok && mg3.iterations >= base.iterations {
		return fmt.Errorf("three-level K-cycle needs %d iterations, the smoother %d", mg3.iterations, base.iterations)
	}
	return nil
}

func writeResults(w io.Writer, results []result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tITERATIONS\tEPS2\tSOLVE\tPRECONDITIONER")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.3g\t%v\t%s\n", res.scenario, res.iterations, res.eps2, res.solve.Round(time.Millisecond), res.prec)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, res := range results {
		for l, t := range res.setup {
			if _, err := fmt.Fprintf(w, "%s setup level %d: %v\n", res.scenario, l, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeConfig(w io.Writer, c *config.Config) error {
	g, err := c.Grid()
	if err != nil {
		return err
	}
	wp, err := c.WilsonParams()
	if err != nil {
		return err
	}
	scale, err := c.GaugeScale()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "grid\t%v\n", g)
	fmt.Fprintf(tw, "seed\t%s\n", c.Seed)
	fmt.Fprintf(tw, "gauge\tscale=%g\n", scale)
	fmt.Fprintf(tw, "wilson\tkappa=%g\n", wp.Kappa)
	names := make([]string, 0, len(c.Solvers))
	for name := range c.Solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, err := c.Solver(name)
		if err != nil {
			return err
		}
		p := spec.Params
		fmt.Fprintf(tw, "solver %s\t%s eps=%g maxiter=%d restartlen=%d checkres=%t\n",
			name, spec.Method, p.Eps, p.MaxIter, p.RestartLen, p.CheckRes)
	}
	names = names[:0]
	for name := range c.Setup {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p, err := c.SetupParams(name)
		if err != nil {
			return err
		}
		blocks := make([]string, len(p.BlockSize))
		for i, b := range p.BlockSize {
			blocks[i] = strings.Trim(fmt.Sprint(b), "[]")
		}
		fmt.Fprintf(tw, "setup %s\t%d levels, blocks %s, n_basis %v\n",
			name, p.Transitions()+1, strings.Join(blocks, " | "), p.NBasis)
	}
	return tw.Flush()
}
