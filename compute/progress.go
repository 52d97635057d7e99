package compute

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/rascalc/accumulator"
)

// logWriter is the destination for the human-readable progress line. The
// teacher keeps both a structured slog logger and this plain writer side
// by side (game/logging.go's Logf next to telemetry/perf.go's slog.Info);
// this package keeps the same split: slog carries the numeric record,
// Logf prints one human-readable line per outer loop.
var logWriter io.Writer

// SetLogWriter sets the destination for Logf output; nil restores the
// default of stdout.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted progress line.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logLoopProgress logs one outer loop's Frobenius deltas, elapsed time and
// ETA (the mean time per loop so far times the loops remaining), both as a
// structured slog record and as a human-readable progress line.
func logLoopProgress(nLoop, maxLoops int, deltas accumulator.FrobeniusDeltas, elapsed time.Duration) {
	var eta time.Duration
	if nLoop > 0 && nLoop < maxLoops {
		eta = elapsed / time.Duration(nLoop) * time.Duration(maxLoops-nLoop)
	}
	slog.Info("loop",
		"n_loop", nLoop,
		"max_loops", maxLoops,
		"f2", deltas.F2,
		"f3", deltas.F3,
		"f4", deltas.F4,
		"elapsed_ms", elapsed.Milliseconds(),
		"eta_ms", eta.Milliseconds(),
	)
	pct := float64(nLoop) / float64(maxLoops) * 100
	Logf("loop %d/%d (%.1f%%): F2=%.4g F3=%.4g F4=%.4g elapsed=%s eta=%s",
		nLoop, maxLoops, pct, deltas.F2, deltas.F3, deltas.F4, elapsed.Round(time.Millisecond), eta.Round(time.Millisecond))
}

// logFinal logs the run's loop count, convergence flag, elapsed time and
// accepted-contribution counts (cnt2, cnt3, cnt4). Attempted-draw totals
// are not tracked, so no acceptance ratio is logged.
func logFinal(result *Result) {
	slog.Info("done",
		"n_loop", result.Loops,
		"converged", result.Converged,
		"elapsed_ms", result.Elapsed.Milliseconds(),
		"cnt2", result.Cnt2,
		"cnt3", result.Cnt3,
		"cnt4", result.Cnt4,
	)
	Logf("=== finished after %d loops (converged=%v) in %s ===", result.Loops, result.Converged, result.Elapsed.Round(time.Millisecond))
}
