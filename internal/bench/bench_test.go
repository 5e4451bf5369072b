package bench

import (
	"errors"
	"testing"
	"time"
)

func TestBestRejectsInvalidShape(t *testing.T) {
	if _, err := Best(func() {}, Shape{Calls: 0, Loops: 1, Rounds: 1}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if _, err := Best(func() {}, Shape{Calls: 1, Loops: -1, Rounds: 1}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
}

func TestBestCountsEveryCall(t *testing.T) {
	shape := Shape{Calls: 7, Loops: 3, Rounds: 2, Settle: time.Nanosecond}
	calls := 0
	if _, err := Best(func() { calls++ }, shape); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := shape.Calls * shape.Loops * shape.Rounds
	if calls != want {
		t.Fatalf("call count mismatch: got=%d want=%d", calls, want)
	}
}

func TestBestRunsProgressPerRound(t *testing.T) {
	rounds := 0
	shape := Shape{Calls: 1, Loops: 1, Rounds: 4, Settle: time.Nanosecond, Progress: func() { rounds++ }}
	if _, err := Best(func() {}, shape); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounds != 4 {
		t.Fatalf("progress calls mismatch: got=%d want=4", rounds)
	}
}

func TestBestKeepsTheFloor(t *testing.T) {
	slowOnce := true
	shape := Shape{Calls: 1, Loops: 2, Rounds: 2, Settle: time.Nanosecond}
	got, err := Best(func() {
		if slowOnce {
			slowOnce = false
			time.Sleep(20 * time.Millisecond)
		}
	}, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got >= 20*time.Millisecond {
		t.Fatalf("expected the slow batch to be discarded, got %v", got)
	}
}
