package arbor

import (
	"fmt"
	"os"
	"time"
)

// paintStats holds per-repaint timing and counts.
// Only logged when the viewer is in debug mode.
type paintStats struct {
	filterTime    time.Duration
	layoutTime    time.Duration
	items         int
	zones         int
	contentHeight float64
}

// stderrLogf is the default Logf.
func stderrLogf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// SetDebugMode enables per-repaint timing output and preload failure
// logging through the viewer's Logf.
func (v *Viewer) SetDebugMode(enabled bool) {
	v.debug = enabled
	if v.images != nil {
		if enabled {
			v.images.SetLogf(v.logf)
		} else {
			v.images.SetLogf(nil)
		}
	}
}

// DebugMode reports whether debug output is enabled.
func (v *Viewer) DebugMode() bool { return v.debug }

// debugLog prints timing and count stats for one repaint.
func (v *Viewer) debugLog(stats paintStats) {
	if !v.debug {
		return
	}
	v.logf("[arbor] filter: %v | layout: %v | total: %v",
		stats.filterTime, stats.layoutTime, stats.filterTime+stats.layoutTime)
	v.logf("[arbor] rows: %d | hot-zones: %d | content height: %.0f",
		stats.items, stats.zones, stats.contentHeight)
}

// warnf logs a structural warning. Warnings are printed regardless of debug
// mode.
func (v *Viewer) warnf(format string, args ...any) {
	v.logf("[arbor] warning: "+format, args...)
}
