// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	gomaxecs "github.com/rdforte/gomaxecs/maxprocs"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cardinalhq/lakescan/cmd"
)

const defaultGCPercent = 50

func init() {
	time.Local = time.UTC
	tuneRuntime(startupVerbose())
}

// startupVerbose reports whether runtime tuning is logged to stderr.
func startupVerbose() bool {
	return os.Getenv("DEBUG") != "" || os.Getenv("LAKESCAN_DEBUG") != ""
}

// tuneRuntime sizes GOMAXPROCS and the memory limit to the container and
// lowers GOGC unless the environment sets it.
func tuneRuntime(verbose bool) {
	logf := func(string, ...any) {}
	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logf = func(msg string, args ...any) { fmt.Fprintf(os.Stderr, msg+"\n", args...) }
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if gomaxecs.IsECS() {
		if _, err := gomaxecs.Set(gomaxecs.WithLogger(logf)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to set maxprocs from ECS task limits: %v\n", err)
		}
	} else if _, err := maxprocs.Set(maxprocs.Logger(logf)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set maxprocs from cgroup limits: %v\n", err)
	}

	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.8),
		memlimit.WithLogger(logger),
		memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set memory limit: %v\n", err)
	}

	if pct, ok := gcPercent(os.Getenv("GOGC")); ok {
		logf("GOGC is not set, using %d%%", pct)
		debug.SetGCPercent(pct)
	}
}

// gcPercent returns the GC percent to apply when GOGC is unset.
func gcPercent(env string) (int, bool) {
	if env != "" {
		return 0, false
	}
	return defaultGCPercent, true
}

func main() {
	cmd.Execute()
}
