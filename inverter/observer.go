// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Observer is notified with the record of every finished solve.
type Observer interface {
	Observe(Record)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Record)

// Observe calls f(r).
func (f ObserverFunc) Observe(r Record) { f(r) }

// LoggingObserver logs every record at info level, or at warn level if the
// solve did not converge.
type LoggingObserver struct {
	logger zerolog.Logger
}

// NewLoggingObserver returns an observer writing to logger.
func NewLoggingObserver(logger zerolog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// Observe implements Observer.
func (o *LoggingObserver) Observe(r Record) {
	ev := o.logger.Info()
	if !r.Converged {
		ev = o.logger.Warn()
	}
	ev.Str("solver", r.Solver).
		Int("iterations", r.Iterations).
		Float64("residual", r.ResidualNorm).
		Bool("converged", r.Converged).
		Dur("runtime", r.Runtime).
		Msg("solve")
}

// MetricsObserver exports solve statistics to Prometheus.
type MetricsObserver struct {
	calls      *prometheus.CounterVec
	iterations *prometheus.HistogramVec
	residual   *prometheus.GaugeVec
	seconds    *prometheus.HistogramVec
}

var (
	defaultMetrics     *MetricsObserver
	defaultMetricsOnce sync.Once
)

// DefaultMetricsObserver returns an observer registered with the default
// Prometheus registry. It is created on first use.
func DefaultMetricsObserver() *MetricsObserver {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetricsObserver(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetricsObserver returns an observer whose metrics are registered with
// reg. It panics if the metrics are already registered.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	f := promauto.With(reg)
	return &MetricsObserver{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gpt_solver_calls_total",
			Help: "Number of solver calls.",
		}, []string{"solver", "converged"}),
		iterations: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gpt_solver_iterations",
			Help:    "Iterations per solver call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"solver"}),
		residual: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpt_solver_residual",
			Help: "Relative residual norm of the last solver call.",
		}, []string{"solver"}),
		seconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gpt_solver_seconds",
			Help:    "Runtime per solver call.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		}, []string{"solver"}),
	}
}

// Observe implements Observer.
func (o *MetricsObserver) Observe(r Record) {
	o.calls.WithLabelValues(r.Solver, strconv.FormatBool(r.Converged)).Inc()
	o.iterations.WithLabelValues(r.Solver).Observe(float64(r.Iterations))
	o.residual.WithLabelValues(r.Solver).Set(r.ResidualNorm)
	o.seconds.WithLabelValues(r.Solver).Observe(r.Runtime.Seconds())
}
