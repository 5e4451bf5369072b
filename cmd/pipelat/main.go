package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/pingpong"
)

func main() {
	if pingpong.IsWorkerProcess() {
		if err := pingpong.RunWorkerProcess(); err != nil {
			fmt.Fprintf(os.Stderr, "pipelat worker: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := pingpong.DefaultConfig()
	flag.IntVar(&cfg.Loops, "loops", cfg.Loops, "ping-pong round trips")
	process := flag.Bool("process", false, "use a child process instead of a goroutine pair")
	flag.Parse()
	logging.ConfigureRuntime()

	if *process {
		cfg.Mode = pingpong.ModeProcess
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pingpong.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipelat: %v\n", err)
		os.Exit(1)
	}

	workers := "goroutines"
	if result.Mode == pingpong.ModeProcess {
		workers = "processes"
	}
	fmt.Printf("# Executed %d pipe operations between two %s\n\n", result.Loops, workers)
	fmt.Printf(" %14s: %.3f [sec]\n\n", "Total time", result.Elapsed.Seconds())
	fmt.Printf(" %14.3f usecs/op\n", float64(result.PerOp().Nanoseconds())/1000.0)
	fmt.Printf(" %14.0f ops/sec\n", result.OpsPerSec())
}
