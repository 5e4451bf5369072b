// Package pingpong measures pipe round-trip latency: two workers
// cross-connected by two pipes passing one word back and forth.
package pingpong

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

const DefaultLoops = 1000000

var (
	ErrInvalidLoops = errors.New("pingpong: loops must be positive")
	ErrUnknownMode  = errors.New("pingpong: unknown mode")
)

type Mode string

const (
	ModeGoroutine Mode = "goroutine"
	ModeProcess   Mode = "process"
)

// Config sizes one latency run.
type Config struct {
	Loops int
	Mode  Mode
}

func DefaultConfig() Config {
	return Config{Loops: DefaultLoops, Mode: ModeGoroutine}
}

func (c Config) validate() error {
	if c.Loops <= 0 {
		return ErrInvalidLoops
	}
	switch c.Mode {
	case ModeGoroutine, ModeProcess:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
}

// Result is the timed outcome of a run.
type Result struct {
	Loops   int
	Mode    Mode
	Elapsed time.Duration
}

func (r Result) PerOp() time.Duration {
	if r.Loops == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Loops)
}

func (r Result) OpsPerSec() float64 {
	secs := r.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(r.Loops) / secs
}

// Run wires the pipe pair and executes both workers. The clock covers
// worker startup, so spawn cost amortizes into the per-op numbers.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	p1r, p1w, err := os.Pipe()
	if err != nil {
		return Result{}, fmt.Errorf("pingpong: pipe: %w", err)
	}
	p2r, p2w, err := os.Pipe()
	if err != nil {
		p1r.Close()
		p1w.Close()
		return Result{}, fmt.Errorf("pingpong: pipe: %w", err)
	}

	// Worker 0: read p1 -> write p2. Worker 1: write p1 -> read p2.
	switch cfg.Mode {
	case ModeGoroutine:
		return runGoroutines(cfg, p1r, p1w, p2r, p2w)
	default:
		return runProcess(ctx, cfg, p1r, p1w, p2r, p2w)
	}
}

func runGoroutines(cfg Config, p1r, p1w, p2r, p2w *os.File) (Result, error) {
	defer closeAll(p1r, p1w, p2r, p2w)

	errs := make(chan error, 2)
	start := time.Now()
	go func() { errs <- worker(0, p1r, p2w, cfg.Loops) }()
	go func() { errs <- worker(1, p2r, p1w, cfg.Loops) }()

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			return Result{}, err
		}
	}
	return Result{Loops: cfg.Loops, Mode: cfg.Mode, Elapsed: time.Since(start)}, nil
}

func runProcess(ctx context.Context, cfg Config, p1r, p1w, p2r, p2w *os.File) (Result, error) {
	exe, err := os.Executable()
	if err != nil {
		closeAll(p1r, p1w, p2r, p2w)
		return Result{}, fmt.Errorf("pingpong: resolve executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe)
	cmd.Env = append(os.Environ(),
		workerEnv+"=0",
		loopsEnv+"="+strconv.Itoa(cfg.Loops),
	)
	// Worker 0 reads fd 3 and writes fd 4.
	cmd.ExtraFiles = []*os.File{p1r, p2w}
	cmd.Stderr = os.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		closeAll(p1r, p1w, p2r, p2w)
		return Result{}, fmt.Errorf("pingpong: start worker: %w", err)
	}
	// Child holds its own copies now.
	p1r.Close()
	p2w.Close()

	workerErr := worker(1, p2r, p1w, cfg.Loops)
	waitErr := cmd.Wait()
	elapsed := time.Since(start)
	closeAll(p1w, p2r)

	if workerErr != nil {
		return Result{}, workerErr
	}
	if waitErr != nil {
		return Result{}, fmt.Errorf("pingpong: worker process: %w", waitErr)
	}
	return Result{Loops: cfg.Loops, Mode: cfg.Mode, Elapsed: elapsed}, nil
}

// worker runs one side of the ping-pong. The whole loop stays on one OS
// thread so the measurement sees real context switches, not goroutine
// rescheduling on the same thread.
func worker(nr int, r io.Reader, w io.Writer, loops int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var word [8]byte
	for i := 0; i < loops; i++ {
		if nr == 0 {
			if _, err := io.ReadFull(r, word[:]); err != nil {
				return fmt.Errorf("pingpong: worker %d read: %w", nr, err)
			}
			if _, err := w.Write(word[:]); err != nil {
				return fmt.Errorf("pingpong: worker %d write: %w", nr, err)
			}
		} else {
			if _, err := w.Write(word[:]); err != nil {
				return fmt.Errorf("pingpong: worker %d write: %w", nr, err)
			}
			if _, err := io.ReadFull(r, word[:]); err != nil {
				return fmt.Errorf("pingpong: worker %d read: %w", nr, err)
			}
		}
	}
	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
