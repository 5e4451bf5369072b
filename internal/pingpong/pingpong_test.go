package pingpong

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/AzyrRuthless/microbench/internal/testutil/testlog"
)

// TestMain doubles as the worker entrypoint: process-mode runs re-execute
// this test binary with the worker env set.
func TestMain(m *testing.M) {
	if IsWorkerProcess() {
		if err := RunWorkerProcess(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestConfigValidation(t *testing.T) {
	if _, err := Run(context.Background(), Config{Loops: 0, Mode: ModeGoroutine}); !errors.Is(err, ErrInvalidLoops) {
		t.Fatalf("expected ErrInvalidLoops, got %v", err)
	}
	if _, err := Run(context.Background(), Config{Loops: 10, Mode: "fiber"}); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestGoroutineRunCompletes(t *testing.T) {
	testlog.Start(t)

	cfg := Config{Loops: 500, Mode: ModeGoroutine}
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Loops != cfg.Loops {
		t.Fatalf("loops mismatch: got=%d want=%d", res.Loops, cfg.Loops)
	}
	if res.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", res.Elapsed)
	}
	if res.PerOp() <= 0 {
		t.Fatalf("expected positive per-op time, got %v", res.PerOp())
	}
	if res.OpsPerSec() <= 0 {
		t.Fatalf("expected positive ops/sec, got %f", res.OpsPerSec())
	}
}

func TestProcessRunCompletes(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := Config{Loops: 2000, Mode: ModeProcess}
	res, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("process run: %v", err)
	}
	if res.Loops != cfg.Loops || res.Mode != ModeProcess {
		t.Fatalf("result shape: %+v", res)
	}
	if res.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", res.Elapsed)
	}
}

func TestRunWorkerProcessRejectsBadEnv(t *testing.T) {
	t.Setenv(workerEnv, "0")
	t.Setenv(loopsEnv, "plenty")
	if err := RunWorkerProcess(); err == nil {
		t.Fatalf("expected loop-count parse error")
	}
}

func TestResultMath(t *testing.T) {
	res := Result{Loops: 1000, Elapsed: time.Second}
	if res.PerOp() != time.Millisecond {
		t.Fatalf("per-op: got=%v want=1ms", res.PerOp())
	}
	if got := res.OpsPerSec(); got < 999.9 || got > 1000.1 {
		t.Fatalf("ops/sec: got=%f want=1000", got)
	}

	var zero Result
	if zero.PerOp() != 0 || zero.OpsPerSec() != 0 {
		t.Fatalf("zero result must not divide by zero")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Loops != DefaultLoops || cfg.Mode != ModeGoroutine {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
