// Package throughput implements the stdin-to-stdout pipe meter: a copy
// loop that reports progress once a second and a summary at the end.
package throughput

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrInvalidBufSize = errors.New("throughput: buffer size must be positive")

const DefaultBufSize = 819200

// Options configure one meter run.
type Options struct {
	BufSize  int
	UnitBase uint64 // IEC or SI
	NoUnits  bool   // raw numbers instead of the unit ladder

	Quiet   bool // suppress per-second progress
	Raw     bool // one bytes-per-second number per line, nothing else
	Summary bool

	// Status receives progress and summary; report data itself flows
	// reader -> writer untouched. StatusIsFile switches the progress line
	// terminator from carriage return to newline.
	Status       io.Writer
	StatusIsFile bool

	// ErrOut aborts on read errors instead of retrying.
	ErrOut bool

	// Clock is the wall clock, swappable in tests.
	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{
		BufSize:  DefaultBufSize,
		UnitBase: IEC,
		Summary:  true,
	}
}

// Totals is what moved through the meter.
type Totals struct {
	Bytes   uint64
	Elapsed time.Duration
}

// Meter copies a stream while accounting for it.
type Meter struct {
	opts Options
}

func New(opts Options) (*Meter, error) {
	if opts.BufSize == 0 {
		opts.BufSize = DefaultBufSize
	}
	if opts.BufSize < 0 {
		return nil, ErrInvalidBufSize
	}
	if opts.UnitBase == 0 {
		opts.UnitBase = IEC
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Raw {
		// Raw output replaces both the fancy line and the summary.
		opts.Quiet = true
		opts.Summary = false
	}
	return &Meter{opts: opts}, nil
}

// Run copies r to w until EOF or ctx cancellation, emitting progress along
// the way. Cancellation is a clean stop, not an error: the summary still
// covers what moved.
func (m *Meter) Run(ctx context.Context, r io.Reader, w io.Writer) (Totals, error) {
	opts := m.opts
	buf := make([]byte, opts.BufSize)
	start := opts.Clock()
	lastTick := start
	var total, lastTotal, speed uint64

	for {
		select {
		case <-ctx.Done():
			return m.finish(start, total), nil
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return m.finish(start, total), fmt.Errorf("throughput: write: %w", err)
			}
			total += uint64(n)
		}

		now := opts.Clock()
		if !opts.Quiet {
			m.progressLine(now.Sub(start), total, speed, now)
		}
		if now.Unix() != lastTick.Unix() {
			speed = total - lastTotal
			lastTotal = total
			lastTick = now
			if opts.Raw {
				fmt.Fprintf(opts.Status, "%d\n", speed)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return m.finish(start, total), nil
			}
			if opts.ErrOut {
				return m.finish(start, total), fmt.Errorf("throughput: read: %w", readErr)
			}
			log.Warn().Err(readErr).Msg("read error, continuing")
		}
	}
}

// WriteSummary prints the closing piped/elapsed/average line unless the
// options suppress it.
func (m *Meter) WriteSummary(t Totals) {
	if !m.opts.Summary {
		return
	}
	avg := uint64(0)
	if secs := t.Elapsed.Seconds(); secs > 0 {
		avg = uint64(float64(t.Bytes) / secs)
	}
	terminator := "\r"
	if m.opts.StatusIsFile {
		terminator = "\n"
	}
	fmt.Fprintf(m.opts.Status, "%80s%sSummary:\nPiped %sB in %s: %sB/second\n",
		"", terminator,
		Unitify(t.Bytes, m.opts.UnitBase, !m.opts.NoUnits),
		FormatElapsed(t.Elapsed),
		Unitify(avg, m.opts.UnitBase, !m.opts.NoUnits))
}

func (m *Meter) finish(start time.Time, total uint64) Totals {
	return Totals{Bytes: total, Elapsed: m.opts.Clock().Sub(start)}
}

func (m *Meter) progressLine(elapsed time.Duration, total, speed uint64, now time.Time) {
	terminator := "\r"
	if m.opts.StatusIsFile {
		terminator = "\n"
	}
	fmt.Fprintf(m.opts.Status, "%s: %sB %sB/second (%s)%s",
		FormatElapsed(elapsed),
		Unitify(total, m.opts.UnitBase, !m.opts.NoUnits),
		Unitify(speed, m.opts.UnitBase, !m.opts.NoUnits),
		now.Format(time.ANSIC),
		terminator)
}
