// Package bench owns the shared best-of measurement loop.
//
// The protocol: a round runs a number of timed batches and keeps the
// fastest batch; a run keeps the fastest round. Minima, not averages,
// because scheduler and cache noise only ever adds time.
package bench

import (
	"errors"
	"time"
)

var ErrInvalidShape = errors.New("bench: calls, loops and rounds must be positive")

// DefaultSettle is the pause between rounds, long enough for the CPU to
// drop out of boost and for pending interrupts to drain.
const DefaultSettle = 125 * time.Millisecond

// Shape sizes one measurement: Calls invocations per timed batch, Loops
// batches per round, Rounds rounds per run.
type Shape struct {
	Calls  int
	Loops  int
	Rounds int

	// Settle is the sleep between rounds. Zero means DefaultSettle.
	Settle time.Duration

	// Progress, when set, runs once after each round.
	Progress func()
}

func (s Shape) withDefaults() Shape {
	if s.Settle == 0 {
		s.Settle = DefaultSettle
	}
	return s
}

func (s Shape) validate() error {
	if s.Calls <= 0 || s.Loops <= 0 || s.Rounds <= 0 {
		return ErrInvalidShape
	}
	return nil
}

// Result reports the noise floor for one implementation.
type Result struct {
	Name    string
	PerCall time.Duration
}

// Best measures fn and returns the fastest observed per-call time.
func Best(fn func(), shape Shape) (time.Duration, error) {
	shape = shape.withDefaults()
	if err := shape.validate(); err != nil {
		return 0, err
	}

	best := time.Duration(1<<63 - 1)
	for round := 0; round < shape.Rounds; round++ {
		bestBatch := time.Duration(1<<63 - 1)
		for loop := 0; loop < shape.Loops; loop++ {
			start := time.Now()
			for call := 0; call < shape.Calls; call++ {
				fn()
			}
			if elapsed := time.Since(start); elapsed < bestBatch {
				bestBatch = elapsed
			}
		}

		perCall := bestBatch / time.Duration(shape.Calls)
		if perCall < best {
			best = perCall
		}

		if shape.Progress != nil {
			shape.Progress()
		}
		if round != shape.Rounds-1 {
			time.Sleep(shape.Settle)
		}
	}

	return best, nil
}
