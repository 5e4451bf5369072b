package throughput

import (
	"fmt"
	"time"
)

// IEC and SI are the two unit ladders the meter knows.
const (
	IEC uint64 = 1024
	SI  uint64 = 1000
)

var unitLadder = []string{"", "k", "M", "G", "T", "P", "E"}

// Unitify renders a byte count on the k/M/G/T/P/E ladder with two decimals,
// or as a raw number when withUnits is false. Width-padded so progress
// lines overwrite each other cleanly.
func Unitify(n uint64, base uint64, withUnits bool) string {
	if !withUnits {
		return fmt.Sprintf("%7.0f ", float64(n))
	}
	if base == 0 {
		base = IEC
	}
	// Strictly greater: exactly one base stays on the current rung.
	v := float64(n)
	e := 0
	for v > float64(base) && e < len(unitLadder)-1 {
		v /= float64(base)
		e++
	}
	return fmt.Sprintf("%7.2f %s", v, unitLadder[e])
}

// FormatElapsed renders a duration as HHhMMmSS.ccs, centisecond precision.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	centis := int64(d%time.Second) / int64(10*time.Millisecond)
	return fmt.Sprintf("%.2dh%.2dm%.2d.%.2ds", secs/3600, (secs/60)%60, secs%60, centis)
}
