package sysprobe

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestClassify(t *testing.T) {
	if got := Classify(0); got != StatusPresent {
		t.Fatalf("errno 0: got=%s want=%s", got, StatusPresent)
	}
	if got := Classify(unix.ENOSYS); got != StatusMissing {
		t.Fatalf("ENOSYS: got=%s want=%s", got, StatusMissing)
	}
	if got := Classify(unix.EINVAL); got != StatusDetect {
		t.Fatalf("EINVAL: got=%s want=%s", got, StatusDetect)
	}
}

func TestRunAllProbes(t *testing.T) {
	findings, err := Run(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != len(Names()) {
		t.Fatalf("finding count mismatch: got=%d want=%d", len(findings), len(Names()))
	}
	for _, f := range findings {
		if f.Number == 0 {
			t.Fatalf("probe %s carries no syscall number", f.Name)
		}
		if f.Status == "" {
			t.Fatalf("probe %s has no status", f.Name)
		}
	}
}

func TestRunSubsetPreservesRequestOrder(t *testing.T) {
	findings, err := Run([]string{"pidfd_open", "close_range"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 2 || findings[0].Name != "pidfd_open" || findings[1].Name != "close_range" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestRunRejectsUnknownProbe(t *testing.T) {
	if _, err := Run([]string{"openat2000"}); !errors.Is(err, ErrUnknownProbe) {
		t.Fatalf("expected ErrUnknownProbe, got %v", err)
	}
}

func TestAnyMissing(t *testing.T) {
	ok := []Finding{{Status: StatusPresent}, {Status: StatusDetect}}
	if AnyMissing(ok) {
		t.Fatalf("expected no missing findings")
	}
	if !AnyMissing(append(ok, Finding{Status: StatusMissing})) {
		t.Fatalf("expected missing finding to be reported")
	}
}
