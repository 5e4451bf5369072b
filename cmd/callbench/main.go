package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AzyrRuthless/microbench/internal/bench"
	"github.com/AzyrRuthless/microbench/internal/calls"
	"github.com/AzyrRuthless/microbench/internal/logging"
)

func main() {
	mode := flag.String("mode", "all", "benchmark mode: time|file|all")
	callsPer := flag.Int("calls", 0, "calls per timed batch (0 uses the per-mode default)")
	loops := flag.Int("loops", 0, "timed batches per round (0 uses the per-mode default)")
	rounds := flag.Int("rounds", 0, "rounds, best kept (0 uses the per-mode default)")
	flag.Parse()
	logging.ConfigureRuntime()

	if err := run(*mode, *callsPer, *loops, *rounds); err != nil {
		fmt.Fprintf(os.Stderr, "callbench: %v\n", err)
		os.Exit(1)
	}
}

func run(rawMode string, callsPer, loops, rounds int) error {
	mode, err := calls.ParseMode(rawMode)
	if err != nil {
		return err
	}

	if mode == calls.ModeTime || mode == calls.ModeAll {
		shape := override(calls.DefaultTimeShape(), callsPer, loops, rounds)
		fmt.Printf("clock_gettime: ")
		shape.Progress = dot
		results, err := calls.TimeResults(shape)
		if err != nil {
			return err
		}
		fmt.Printf("\n")
		printResults(results)
	}

	if mode == calls.ModeFile || mode == calls.ModeAll {
		shape := override(calls.DefaultFileShape(), callsPer, loops, rounds)
		fmt.Printf("read file: ")
		shape.Progress = dot
		results, err := calls.FileResults(shape)
		if err != nil {
			return err
		}
		fmt.Printf("\n")
		printResults(results)
	}
	return nil
}

func override(shape bench.Shape, callsPer, loops, rounds int) bench.Shape {
	if callsPer > 0 {
		shape.Calls = callsPer
	}
	if loops > 0 {
		shape.Loops = loops
	}
	if rounds > 0 {
		shape.Rounds = rounds
	}
	return shape
}

func dot() {
	fmt.Printf(".")
	os.Stdout.Sync()
}

func printResults(results []bench.Result) {
	for _, r := range results {
		fmt.Printf("    %s:\t%d ns\n", r.Name, r.PerCall.Nanoseconds())
	}
}
