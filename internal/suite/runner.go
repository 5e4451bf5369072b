package suite

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AzyrRuthless/microbench/internal/observability"
	"github.com/AzyrRuthless/microbench/internal/tools"
)

const outputTailBytes = 512

// RunRecord is the outcome of one benchmark invocation.
type RunRecord struct {
	Benchmark  string        `json:"benchmark"`
	Tool       string        `json:"tool"`
	Target     string        `json:"target"`
	Iteration  int           `json:"iteration"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
	OutputTail string        `json:"output_tail,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Runner executes a suite on a fixed target.
type Runner struct {
	suite  Suite
	runner tools.Runner
	target string
	stream io.Writer
}

// StreamTo mirrors each run's combined output to w as it happens. The
// recorded tail is kept either way.
func (r *Runner) StreamTo(w io.Writer) {
	r.stream = w
}

// NewRunner binds a suite to its execution target. Remote execution
// requires the suite to carry a [remote] block.
func NewRunner(s Suite, remote bool) (*Runner, error) {
	if !remote {
		return &Runner{suite: s, runner: tools.LocalRunner{}, target: "local"}, nil
	}
	if s.Remote == nil {
		return nil, ErrNoRemote
	}
	r := tools.SSHRunner{
		Host:                        s.Remote.Host,
		Port:                        s.Remote.Port,
		User:                        s.Remote.User,
		KeyPath:                     s.Remote.KeyPath,
		KnownHostsPath:              s.Remote.KnownHostsPath,
		InsecureSkipHostKeyChecking: s.Remote.Insecure,
	}
	return &Runner{suite: s, runner: r, target: s.Remote.Host}, nil
}

// Target reports where this runner executes.
func (r *Runner) Target() string {
	return r.target
}

// RunAll executes every benchmark in order, every iteration, even past
// failures: a broken tool is itself a result worth reporting. Only context
// cancellation stops the sweep early.
func (r *Runner) RunAll(ctx context.Context) ([]RunRecord, error) {
	records := make([]RunRecord, 0, len(r.suite.Benchmarks))
	for _, b := range r.suite.Benchmarks {
		cmd := b.Tool
		if r.suite.BinDir != "" {
			cmd = filepath.Join(r.suite.BinDir, b.Tool)
		}

		for i := 1; i <= b.Repeat; i++ {
			if err := ctx.Err(); err != nil {
				return records, err
			}

			startedAt := time.Now()
			out, err := r.execute(cmd, b.Args)
			elapsed := time.Since(startedAt)

			rec := RunRecord{
				Benchmark:  b.Name,
				Tool:       b.Tool,
				Target:     r.target,
				Iteration:  i,
				StartedAt:  startedAt,
				Elapsed:    elapsed,
				OutputTail: tail(out),
			}
			if err != nil {
				rec.Error = err.Error()
			}
			records = append(records, rec)

			observability.RecordBenchRun(b.Tool, r.target, elapsed, err)
			event := log.Info()
			if err != nil {
				event = log.Warn().Err(err)
			}
			event.
				Str("benchmark", b.Name).
				Str("tool", b.Tool).
				Str("target", r.target).
				Int("iteration", i).
				Dur("elapsed", elapsed).
				Msg("suite run")
		}
	}
	return records, nil
}

func (r *Runner) execute(cmd string, args []string) (string, error) {
	if r.stream == nil {
		return r.runner.Run(cmd, args...)
	}
	var buf bytes.Buffer
	sink := io.MultiWriter(r.stream, &buf)
	err := r.runner.RunStreaming(cmd, args, sink, sink)
	return buf.String(), err
}

func tail(out string) string {
	if len(out) <= outputTailBytes {
		return out
	}
	return out[len(out)-outputTailBytes:]
}
