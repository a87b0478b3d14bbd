// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mgsolve solves the Wilson-Dirac equation on a random gauge field
// with flexible GMRES, preconditioned by a smoother alone or by multigrid
// cycles, and reports iteration counts and setup timings.
package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

func main() {
	out := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}
	logger := zerolog.New(out).With().
		Timestamp().
		Str("run", uuid.NewString()).
		Logger()
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("mgsolve failed")
		os.Exit(1)
	}
}
