package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AzyrRuthless/microbench/internal/benchd"
	"github.com/AzyrRuthless/microbench/internal/config"
	"github.com/AzyrRuthless/microbench/internal/logging"
	"github.com/AzyrRuthless/microbench/internal/suite"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "benchd.toml", "daemon config file")
	remote := flag.Bool("remote", false, "execute the suite on its [remote] host over SSH")
	flag.Parse()
	logging.ConfigureRuntime()

	if err := run(*configPath, *remote); err != nil {
		fmt.Fprintf(os.Stderr, "benchd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, remote bool) error {
	cfg, err := config.LoadBenchdConfig(configPath)
	if err != nil {
		return err
	}
	plan, err := suite.Load(cfg.SuitePath)
	if err != nil {
		return err
	}

	d, err := benchd.New(cfg, plan, remote)
	if err != nil {
		return err
	}

	interval, err := cfg.RunInterval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := d.Loop(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("suite loop stopped")
		}
	}()

	log.Info().
		Str("service", cfg.Name).
		Str("addr", cfg.Addr).
		Str("suite", plan.Name).
		Dur("interval", interval).
		Msg("benchd listening")
	return d.Serve()
}
