package calls

import (
	"errors"
	"testing"
	"time"

	"github.com/AzyrRuthless/microbench/internal/bench"
	"github.com/AzyrRuthless/microbench/internal/testutil/testlog"
)

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"time", "file", "all"} {
		if _, err := ParseMode(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	if _, err := ParseMode("net"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestTimeResultsSmallShape(t *testing.T) {
	testlog.Start(t)

	shape := bench.Shape{Calls: 50, Loops: 2, Rounds: 2, Settle: time.Millisecond}
	results, err := TimeResults(shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 probes, got %d", len(results))
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
		if r.PerCall < 0 {
			t.Fatalf("negative per-call time for %s: %v", r.Name, r.PerCall)
		}
	}
	for _, want := range []string{"syscall", "getpid", "runtime"} {
		if !names[want] {
			t.Fatalf("missing probe %q in results", want)
		}
	}
}

func TestFileResultsSmallShape(t *testing.T) {
	testlog.Start(t)

	shape := bench.Shape{Calls: 4, Loops: 2, Rounds: 2, Settle: time.Millisecond}
	results, err := FileResults(shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(results))
	}
	if results[0].Name != "mmap" || results[1].Name != "read" {
		t.Fatalf("unexpected probe order: %+v", results)
	}
}

func TestCheckReadable(t *testing.T) {
	if err := CheckReadable(); err != nil {
		t.Fatalf("expected %s to be readable: %v", ReadPath, err)
	}
}
