package stress

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Run executes one stress benchmark: wire every group, wait for all workers
// to report ready, kick them off with a single wake byte, and time the run
// to the last worker's exit.
//
// Invariant carried from the barrier design: the wake byte is written only
// after all ready bytes have been consumed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	readyR, readyW, err := fdPair(cfg.Transport)
	if err != nil {
		return Result{}, err
	}
	wakeR, wakeW, err := fdPair(cfg.Transport)
	if err != nil {
		readyR.Close()
		readyW.Close()
		return Result{}, err
	}
	defer readyR.Close()
	defer wakeW.Close()

	if cfg.Mode == ModeGoroutine {
		defer readyW.Close()
		defer wakeR.Close()
		return runGoroutines(ctx, cfg, readyR, readyW, wakeR, wakeW)
	}
	return runProcesses(ctx, cfg, readyR, readyW, wakeR, wakeW)
}

func runGoroutines(ctx context.Context, cfg Config, readyR, readyW, wakeR, wakeW *os.File) (Result, error) {
	tasks := cfg.Tasks()
	errs := make(chan error, tasks)
	var dataFiles []*os.File

	for g := 0; g < cfg.Groups; g++ {
		outs := make([]*os.File, 0, cfg.FDsPerGroup)
		for i := 0; i < cfg.FDsPerGroup; i++ {
			r, w, err := fdPair(cfg.Transport)
			if err != nil {
				closeFiles(dataFiles)
				return Result{}, err
			}
			dataFiles = append(dataFiles, r, w)
			outs = append(outs, w)

			in := r
			go func() {
				errs <- receiver(in, cfg.MessagesPerReceiver(), cfg.DataSize, readyW, wakeR)
			}()
		}
		for i := 0; i < cfg.FDsPerGroup; i++ {
			out := outs
			go func() {
				errs <- sender(out, cfg.Loops, cfg.DataSize, readyW, wakeR)
			}()
		}
	}

	if cfg.FIFO {
		if err := setFIFO(); err != nil {
			closeFiles(dataFiles)
			return Result{}, err
		}
	}

	if err := awaitReady(ctx, readyR, tasks); err != nil {
		// Closing a data fd unblocks reads and writes, but a worker parked
		// in poll(2) on the wake fd only moves when a byte arrives. Kick
		// them all, release any still blocked on the ready write, then
		// wait for every goroutine to report back.
		_, _ = wakeW.Write([]byte{'*'})
		_ = readyW.Close()
		closeFiles(dataFiles)
		drain(errs, tasks)
		return Result{}, err
	}

	start := time.Now()
	if _, err := wakeW.Write([]byte{'*'}); err != nil {
		closeFiles(dataFiles)
		return Result{}, fmt.Errorf("stress: wake write: %w", err)
	}

	var firstErr error
	for i := 0; i < tasks; i++ {
		select {
		case <-ctx.Done():
			closeFiles(dataFiles)
			drain(errs, tasks-i)
			return Result{}, ctx.Err()
		case err := <-errs:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	elapsed := time.Since(start)
	closeFiles(dataFiles)

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if firstErr != nil {
		return Result{}, firstErr
	}
	return Result{Config: cfg, Elapsed: elapsed}, nil
}

func runProcesses(ctx context.Context, cfg Config, readyR, readyW, wakeR, wakeW *os.File) (Result, error) {
	exe, err := os.Executable()
	if err != nil {
		readyW.Close()
		wakeR.Close()
		return Result{}, fmt.Errorf("stress: resolve executable: %w", err)
	}

	var cmds []*exec.Cmd
	spawn := func(role string, env []string, extra []*os.File) error {
		cmd := exec.CommandContext(ctx, exe)
		cmd.Env = append(os.Environ(), env...)
		cmd.ExtraFiles = append([]*os.File{readyW, wakeR}, extra...)
		cmd.Stderr = os.Stderr
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("stress: start %s: %w", role, err)
		}
		cmds = append(cmds, cmd)
		return nil
	}

	sizeVar := sizeEnv + "=" + strconv.Itoa(cfg.DataSize)
	wireErr := func() error {
		for g := 0; g < cfg.Groups; g++ {
			outs := make([]*os.File, 0, cfg.FDsPerGroup)
			for i := 0; i < cfg.FDsPerGroup; i++ {
				r, w, err := fdPair(cfg.Transport)
				if err != nil {
					return err
				}
				env := []string{
					workerEnv + "=" + roleReceiver,
					sizeVar,
					packetsEnv + "=" + strconv.Itoa(cfg.MessagesPerReceiver()),
				}
				err = spawn(roleReceiver, env, []*os.File{r})
				r.Close()
				if err != nil {
					w.Close()
					return err
				}
				outs = append(outs, w)
			}
			for i := 0; i < cfg.FDsPerGroup; i++ {
				env := []string{
					workerEnv + "=" + roleSender,
					sizeVar,
					loopsEnv + "=" + strconv.Itoa(cfg.Loops),
					outCountEnv + "=" + strconv.Itoa(len(outs)),
				}
				if err := spawn(roleSender, env, outs); err != nil {
					closeFiles(outs)
					return err
				}
			}
			closeFiles(outs)
		}
		return nil
	}()

	// Children hold their own dups of the barrier ends now.
	readyW.Close()
	wakeR.Close()

	if wireErr != nil {
		reap(cmds, true)
		return Result{}, wireErr
	}

	if cfg.FIFO {
		if err := setFIFO(); err != nil {
			reap(cmds, true)
			return Result{}, err
		}
	}

	if err := awaitReady(ctx, readyR, cfg.Tasks()); err != nil {
		reap(cmds, true)
		return Result{}, err
	}

	start := time.Now()
	if _, err := wakeW.Write([]byte{'*'}); err != nil {
		reap(cmds, true)
		return Result{}, fmt.Errorf("stress: wake write: %w", err)
	}

	waitErr := reap(cmds, false)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if waitErr != nil {
		return Result{}, waitErr
	}
	return Result{Config: cfg, Elapsed: elapsed}, nil
}

// awaitReady consumes one ready byte per worker before the start kick.
func awaitReady(ctx context.Context, readyR *os.File, tasks int) error {
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, tasks)
		_, err := io.ReadFull(readyR, buf)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("stress: readiness barrier: %w", err)
		}
		return nil
	}
}

// reap waits out every child, optionally terminating them first.
func reap(cmds []*exec.Cmd, kill bool) error {
	if kill {
		log.Warn().Int("children", len(cmds)).Msg("terminating stress workers")
		for _, cmd := range cmds {
			if cmd.Process != nil {
				_ = cmd.Process.Signal(syscall.SIGTERM)
			}
		}
	}

	var firstErr error
	for _, cmd := range cmds {
		if err := cmd.Wait(); err != nil && firstErr == nil && !kill {
			firstErr = fmt.Errorf("stress: worker: %w", err)
		}
	}
	return firstErr
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func drain(errs <-chan error, n int) {
	for i := 0; i < n; i++ {
		<-errs
	}
}
