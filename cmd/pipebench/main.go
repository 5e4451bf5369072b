package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/throughput"
	"github.com/rs/zerolog/log"
)

func main() {
	opts := throughput.DefaultOptions()
	noSummary := flag.Bool("o", false, "skip the summary")
	quietAll := flag.Bool("Q", false, "quiet and no summary")
	statusPath := flag.String("s", "", "write status to file instead of stderr")
	statusAppend := flag.String("S", "", "append status to file instead of stderr")
	si := flag.Bool("I", false, "SI units (1000) instead of IEC (1024)")
	flag.IntVar(&opts.BufSize, "b", opts.BufSize, "copy buffer size in bytes")
	flag.BoolVar(&opts.Quiet, "q", opts.Quiet, "suppress the per-second status line")
	flag.BoolVar(&opts.Raw, "r", opts.Raw, "raw mode: one bytes-per-second number per line")
	flag.BoolVar(&opts.NoUnits, "u", opts.NoUnits, "raw numbers instead of the unit ladder")
	flag.BoolVar(&opts.ErrOut, "e", opts.ErrOut, "abort on I/O errors instead of carrying on")
	flag.Parse()
	logging.ConfigureRuntime()

	if *noSummary || *quietAll {
		opts.Summary = false
	}
	if *quietAll {
		opts.Quiet = true
	}
	if *si {
		opts.UnitBase = throughput.SI
	}

	if err := run(opts, *statusPath, *statusAppend); err != nil {
		fmt.Fprintf(os.Stderr, "pipebench: %v\n", err)
		os.Exit(1)
	}
}

func run(opts throughput.Options, statusPath, statusAppend string) error {
	path, appendMode := statusPath, false
	if statusAppend != "" {
		path, appendMode = statusAppend, true
	}
	if path != "" {
		mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if appendMode {
			mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(path, mode, 0o644)
		if err != nil {
			if opts.ErrOut {
				return fmt.Errorf("open status file: %w", err)
			}
			log.Warn().Err(err).Str("path", path).Msg("status file unavailable, using stderr")
		} else {
			defer f.Close()
			opts.Status = f
			opts.StatusIsFile = true
		}
	}

	meter, err := throughput.New(opts)
	if err != nil {
		return err
	}

	// SIGINT ends the copy; the summary still covers what moved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	totals, err := meter.Run(ctx, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	meter.WriteSummary(totals)
	return nil
}
