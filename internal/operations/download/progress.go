package download

import (
	"fmt"
	"io"
)

// PercentProgress returns a ProgressFunc that prints a line to w every time the
// transfer crosses another step percent. With an unknown total it prints the
// byte count once per megabyte instead.
func PercentProgress(w io.Writer, step int) ProgressFunc {
	if step <= 0 || step > 100 {
		step = 10
	}
	next := 0
	var nextBytes int64
	return func(written, total int64) {
		if total <= 0 {
			if written >= nextBytes {
				fmt.Fprintf(w, "  downloaded %d bytes\n", written)
				nextBytes = written + 1<<20
			}
			return
		}
		pct := int(written * 100 / total)
		if pct > 100 {
			pct = 100
		}
		if pct < next {
			return
		}
		fmt.Fprintf(w, "  %3d%% (%d/%d bytes)\n", pct, written, total)
		next = (pct/step + 1) * step
	}
}
