package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/suite"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "suite.toml", "suite definition file")
	remote := flag.Bool("remote", false, "execute on the suite's [remote] host over SSH")
	binDir := flag.String("dir", "", "directory holding the tool binaries (overrides the suite's bin_dir)")
	stream := flag.Bool("stream", false, "mirror benchmark output to stderr as it runs")
	flag.Parse()
	logging.ConfigureRuntime()

	if err := run(*configPath, *remote, *binDir, *stream); err != nil {
		fmt.Fprintf(os.Stderr, "benchsuite: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, remote bool, binDir string, stream bool) error {
	plan, err := suite.Load(configPath)
	if err != nil {
		return err
	}
	if binDir != "" {
		plan.BinDir = binDir
	}

	runner, err := suite.NewRunner(plan, remote)
	if err != nil {
		return err
	}
	if stream {
		runner.StreamTo(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("suite", plan.Name).
		Str("target", runner.Target()).
		Int("benchmarks", len(plan.Benchmarks)).
		Msg("suite starting")

	records, err := runner.RunAll(ctx)
	if err != nil {
		return err
	}

	failures := 0
	for _, rec := range records {
		status := "ok"
		if rec.Error != "" {
			status = "FAILED"
			failures++
		}
		fmt.Printf("%-20s #%d %-8s %10.3fs  %s\n",
			rec.Benchmark, rec.Iteration, status, rec.Elapsed.Seconds(), rec.Tool)
	}
	fmt.Printf("\n%d runs, %d failed, target %s\n", len(records), failures, runner.Target())

	if failures > 0 {
		return fmt.Errorf("%d of %d runs failed", failures, len(records))
	}
	return nil
}
