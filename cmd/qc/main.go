package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/pnetlab/pfnqc/internal/config"
	"github.com/pnetlab/pfnqc/internal/runner"
	"github.com/pnetlab/pfnqc/pkg/utils/logger"
)

func main() {
	manifestPath := flag.String("run", "", "Path to the QC run manifest (YAML)")
	workers := flag.Int("workers", 0, "Override the subject worker-pool size")
	logLevel := flag.String("log-level", "", "Override the log level (trace, debug, info, warn, error)")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	envCfg, err := config.LoadEnv()
	if err != nil {
		logger.Init("info")
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	level := envCfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger.Init(level)

	man, err := config.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load run manifest")
	}
	if envCfg.Workers > 0 {
		man.Workers = envCfg.Workers
	}
	if *workers > 0 {
		man.Workers = *workers
	}

	r, err := runner.New(man)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up the QC run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := r.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("QC run aborted")
	}
	log.Info().
		Int("total", summary.Total).
		Int("mismatched", summary.Mismatched).
		Int("errored", summary.Errored).
		Msg("QC run complete")
}
