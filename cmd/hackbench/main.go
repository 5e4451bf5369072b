package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/stress"
)

func main() {
	if stress.IsWorkerProcess() {
		if err := stress.RunWorkerProcess(); err != nil {
			fmt.Fprintf(os.Stderr, "hackbench worker: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := stress.DefaultConfig()
	pipe := flag.Bool("pipe", false, "use pipes instead of socketpairs")
	flag.IntVar(&cfg.DataSize, "datasize", cfg.DataSize, "message size in bytes")
	flag.IntVar(&cfg.Loops, "loops", cfg.Loops, "messages per sender per fd")
	flag.IntVar(&cfg.Groups, "groups", cfg.Groups, "sender/receiver groups")
	flag.IntVar(&cfg.FDsPerGroup, "fds", cfg.FDsPerGroup, "file descriptors (worker pairs) per group")
	process := flag.Bool("process", false, "run workers as child processes (default)")
	goroutine := flag.Bool("goroutine", false, "run workers as goroutines")
	flag.BoolVar(&cfg.FIFO, "fifo", cfg.FIFO, "put the coordinator on SCHED_FIFO (needs CAP_SYS_NICE)")
	flag.Parse()

	logging.ConfigureRuntime()

	if *pipe {
		cfg.Transport = stress.TransportPipe
	}
	switch {
	case *process && *goroutine:
		fmt.Fprintf(os.Stderr, "hackbench: -process and -goroutine are mutually exclusive\n")
		os.Exit(1)
	case *goroutine:
		cfg.Mode = stress.ModeGoroutine
	default:
		cfg.Mode = stress.ModeProcess
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running in %s mode with %d groups using %d file descriptors each (== %d tasks)\n",
		cfg.Mode, cfg.Groups, 2*cfg.FDsPerGroup, cfg.Tasks())
	fmt.Printf("Each sender will pass %d messages of %d bytes\n", cfg.Loops, cfg.DataSize)
	result, err := stress.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hackbench: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Time: %.3f s\n", result.Elapsed.Seconds())
}
