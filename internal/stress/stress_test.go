package stress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
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
	cases := []struct {
		mutate func(*Config)
		want   error
	}{
		{func(c *Config) { c.Groups = 0 }, ErrInvalidGroups},
		{func(c *Config) { c.FDsPerGroup = -1 }, ErrInvalidFDs},
		{func(c *Config) { c.Loops = 0 }, ErrInvalidLoops},
		{func(c *Config) { c.DataSize = 0 }, ErrInvalidDataSize},
		{func(c *Config) { c.Transport = "shm" }, ErrUnknownTrans},
		{func(c *Config) { c.Mode = "fiber" }, ErrUnknownMode},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		if _, err := Run(context.Background(), cfg); !errors.Is(err, c.want) {
			t.Fatalf("expected %v, got %v", c.want, err)
		}
	}
}

func TestConfigMath(t *testing.T) {
	cfg := Config{Groups: 3, FDsPerGroup: 4, Loops: 5, DataSize: 10}
	if got := cfg.Tasks(); got != 24 {
		t.Fatalf("tasks: got=%d want=24", got)
	}
	if got := cfg.MessagesPerReceiver(); got != 20 {
		t.Fatalf("messages per receiver: got=%d want=20", got)
	}
}

func TestFDPairTransports(t *testing.T) {
	for _, tr := range []Transport{TransportPipe, TransportSocket} {
		r, w, err := fdPair(tr)
		if err != nil {
			t.Fatalf("fdPair(%s): %v", tr, err)
		}
		if _, err := w.Write([]byte("ping")); err != nil {
			t.Fatalf("write on %s pair: %v", tr, err)
		}
		buf := make([]byte, 4)
		if _, err := r.Read(buf); err != nil {
			t.Fatalf("read on %s pair: %v", tr, err)
		}
		if string(buf) != "ping" {
			t.Fatalf("payload mismatch on %s pair: %q", tr, buf)
		}
		r.Close()
		w.Close()
	}
}

func TestGoroutineRunSmall(t *testing.T) {
	testlog.Start(t)

	cfg := Config{
		Groups:      2,
		FDsPerGroup: 2,
		Loops:       5,
		DataSize:    64,
		Transport:   TransportSocket,
		Mode:        ModeGoroutine,
	}
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", res.Elapsed)
	}
}

func TestGoroutineRunSmallPipes(t *testing.T) {
	testlog.Start(t)

	cfg := Config{
		Groups:      1,
		FDsPerGroup: 3,
		Loops:       4,
		DataSize:    32,
		Transport:   TransportPipe,
		Mode:        ModeGoroutine,
	}
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestProcessRunSmall(t *testing.T) {
	testlog.Start(t)

	cfg := Config{
		Groups:      1,
		FDsPerGroup: 2,
		Loops:       3,
		DataSize:    32,
		Transport:   TransportSocket,
		Mode:        ModeProcess,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := Run(ctx, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", res.Elapsed)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.Mode = ModeGoroutine
	cfg.Groups = 1
	cfg.FDsPerGroup = 1
	if _, err := Run(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCancelledRunLeavesNoWorkers(t *testing.T) {
	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.Mode = ModeGoroutine
	cfg.Groups = 2
	cfg.FDsPerGroup = 3
	if _, err := Run(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Run drains every worker before returning; allow a moment for the
	// runtime to retire the exited goroutines.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("worker goroutines leaked: before=%d after=%d", before, runtime.NumGoroutine())
}

func TestRunWorkerProcessRejectsBadEnv(t *testing.T) {
	t.Setenv(workerEnv, "sender")
	t.Setenv(sizeEnv, "not-a-number")
	if err := RunWorkerProcess(); err == nil {
		t.Fatalf("expected env validation error")
	}
}
