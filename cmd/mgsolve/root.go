// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saintbenjamin/gpt/config"
	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
)

type rootFlags struct {
	configPath  string
	extent      []int
	seed        string
	kappa       float64
	gaugeScale  float64
	logLevel    string
	metricsAddr string
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:   "mgsolve",
		Short: "Multigrid preconditioned solves of the Wilson-Dirac operator",
		Long: `mgsolve builds the Wilson-Dirac operator on a random gauge field and
solves it for a constant source with flexible GMRES. The preconditioner is
either the smoother alone, a two-level V-cycle or a three-level K-cycle run
in single precision.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file (default: built-in)")
	pf.IntSliceVar(&f.extent, "extent", nil, "override the lattice extent, e.g. 8,8,8,8")
	pf.StringVar(&f.seed, "seed", "", "override the random seed")
	pf.Float64Var(&f.kappa, "kappa", 0, "override the hopping parameter")
	pf.Float64Var(&f.gaugeScale, "gauge-scale", -1, "override the scale of the random gauge links")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(
		newSolveCmd(&f, logger),
		newCompareCmd(&f, logger),
		newConfigCmd(&f),
	)
	return root
}

// loadConfig reads the configuration and applies the flag overrides.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if f.configPath == "" {
		c, err = config.Default()
	} else {
		c, err = config.LoadFile(f.configPath)
	}
	if err != nil {
		return nil, err
	}
	if len(f.extent) > 0 {
		c.Lattice.Extent = f.extent
	}
	if f.seed != "" {
		c.Seed = f.seed
	}
	if f.kappa != 0 {
		if c.Wilson == nil {
			c.Wilson = map[string]any{}
		}
		c.Wilson["kappa"] = f.kappa
	}
	if f.gaugeScale >= 0 {
		c.Gauge.Scale = &f.gaugeScale
	}
	return c, c.Validate()
}

// newRunner prepares a runner from the flags. The returned function stops
// the metrics server, if any.
func (f *rootFlags) newRunner(logger zerolog.Logger) (*runner, func(), error) {
	lvl, err := zerolog.ParseLevel(f.logLevel)
	if err != nil {
		return nil, nil, lattice.NewConfigError("mgsolve", "log-level", "%v", err)
	}
	logger = logger.Level(lvl)
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	r := newRunner(cfg, logger)
	if f.metricsAddr == "" {
		return r, func() {}, nil
	}
	r.observers = append(r.observers, inverter.DefaultMetricsObserver())
	srv := &http.Server{
		Addr:              f.metricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", f.metricsAddr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", f.metricsAddr).Msg("serving metrics")
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return r, stop, nil
}

func newSolveCmd(f *rootFlags, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:       "solve [smoother|2lvl|3lvl]...",
		Short:     "Solve with the given preconditioners",
		ValidArgs: scenarios,
		Args:      cobra.MatchAll(cobra.MinimumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			r, stop, err := f.newRunner(logger)
			if err != nil {
				return err
			}
			defer stop()
			var results []result
			for _, name := range args {
				res, err := r.run(ctx, name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results = append(results, res)
			}
			return writeResults(cmd.OutOrStdout(), results)
		},
	}
}

func newCompareCmd(f *rootFlags, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Run every preconditioner and check that multigrid pays off",
		Long: `compare runs the smoother, the two-level V-cycle and the three-level
mixed precision K-cycle. It fails unless every solve reaches a relative
squared residual below 1e-12, the V-cycle needs at most as many outer
iterations as the smoother and the K-cycle strictly fewer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			r, stop, err := f.newRunner(logger)
			if err != nil {
				return err
			}
			defer stop()
			var results []result
			for _, name := range scenarios {
				res, err := r.run(ctx, name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results = append(results, res)
			}
			if err := writeResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			return compare(results)
		},
	}
}

func newConfigCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration and print the solvers it defines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), c)
		},
	}
}
