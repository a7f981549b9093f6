package bot

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/bebbyilham/monad-ambient-cli/internal/stats"
)

// PrintSummary renders the end-of-run report. It is always printed, even
// after a cancelled run, so partial results are never lost.
func PrintSummary(w io.Writer, nativeSymbol string, s stats.Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	bold.Fprintln(w, "========== Run Summary ==========")
	for _, ws := range s.Wallets {
		cyan.Fprintf(w, "%s\n", ws.Name)
		fmt.Fprintf(w, "  operations: %d  successful: %d  failed: %d\n",
			ws.Completed, ws.Successful, len(ws.Failures))
		fmt.Fprintf(w, "  balance: %.6f -> %.6f %s (delta %+.6f)\n",
			ws.StartBalance, ws.EndBalance, nativeSymbol, ws.Delta())
		for _, f := range ws.Failures {
			red.Fprintf(w, "  round %d [%s]: %s\n", f.Round, f.Kind, f.Message)
		}
	}

	bold.Fprintln(w, "---------------------------------")
	fmt.Fprintf(w, "attempted: %d\n", s.Attempted)
	if s.Successful == s.Attempted && s.Attempted > 0 {
		green.Fprintf(w, "successful: %d (100%%)\n", s.Successful)
	} else {
		fmt.Fprintf(w, "successful: %d (%.1f%%)\n", s.Successful, s.SuccessRate*100)
	}
	fmt.Fprintf(w, "net %s delta: %+.6f\n", nativeSymbol, s.TotalDelta)
	bold.Fprintln(w, "=================================")
}
