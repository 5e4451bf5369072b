package throughput

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AzyrRuthless/microbench/internal/testutil/testlog"
)

func TestUnitifyLadder(t *testing.T) {
	cases := []struct {
		n    uint64
		base uint64
		want string
	}{
		{512, IEC, "512.00"},
		{1024, IEC, "1024.00"},
		{1025, IEC, "1.00 k"},
		{2048, IEC, "2.00 k"},
		{1000, SI, "1000.00"},
		{3 * 1024 * 1024, IEC, "3.00 M"},
		{2000, SI, "2.00 k"},
		{1500000000, SI, "1.50 G"},
	}
	for _, c := range cases {
		got := strings.TrimSpace(Unitify(c.n, c.base, true))
		if got != c.want {
			t.Fatalf("unitify(%d, %d): got=%q want=%q", c.n, c.base, got, c.want)
		}
	}
}

func TestUnitifyRaw(t *testing.T) {
	got := strings.TrimSpace(Unitify(123456, IEC, false))
	if got != "123456" {
		t.Fatalf("raw unitify: got=%q want=123456", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	d := 1*time.Hour + 2*time.Minute + 3*time.Second + 450*time.Millisecond
	if got := FormatElapsed(d); got != "01h02m03.45s" {
		t.Fatalf("elapsed format: got=%q", got)
	}
	if got := FormatElapsed(-time.Second); got != "00h00m00.00s" {
		t.Fatalf("negative elapsed should clamp: got=%q", got)
	}
}

func TestMeterCopiesEverything(t *testing.T) {
	testlog.Start(t)

	payload := bytes.Repeat([]byte("abcdefgh"), 4096)
	var out bytes.Buffer
	var status bytes.Buffer

	m, err := New(Options{BufSize: 1024, Quiet: true, Summary: true, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totals, err := m.Run(context.Background(), bytes.NewReader(payload), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if totals.Bytes != uint64(len(payload)) {
		t.Fatalf("totals mismatch: got=%d want=%d", totals.Bytes, len(payload))
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("copied data does not match input")
	}

	m.WriteSummary(totals)
	if !strings.Contains(status.String(), "Summary:") {
		t.Fatalf("expected summary in status output, got %q", status.String())
	}
}

func TestMeterRawModeSuppressesSummary(t *testing.T) {
	var status bytes.Buffer
	m, err := New(Options{Raw: true, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totals, err := m.Run(context.Background(), strings.NewReader("data"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	m.WriteSummary(totals)
	if strings.Contains(status.String(), "Summary:") {
		t.Fatalf("raw mode must not print a summary, got %q", status.String())
	}
}

func TestMeterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An endless zero reader: only cancellation ends the run.
	m, err := New(Options{Quiet: true, Status: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Run(ctx, endlessReader{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("cancellation should be a clean stop: %v", err)
	}
}

func TestMeterReadErrorWithErrOut(t *testing.T) {
	m, err := New(Options{Quiet: true, ErrOut: true, Status: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantErr := errors.New("device gone")
	_, err = m.Run(context.Background(), &failingReader{err: wantErr}, &bytes.Buffer{})
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestNewRejectsNegativeBufSize(t *testing.T) {
	if _, err := New(Options{BufSize: -1}); !errors.Is(err, ErrInvalidBufSize) {
		t.Fatalf("expected ErrInvalidBufSize, got %v", err)
	}
}

type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }
