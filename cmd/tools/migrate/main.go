package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/anishk6674/kanchan-chilled/internal/config"
	"github.com/anishk6674/kanchan-chilled/internal/db"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-steps n] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("component", "migrate").Logger()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	switch flag.Arg(0) {
	case "up":
		err = db.Migrate(cfg.DatabaseURL)
	case "down":
		err = db.Rollback(cfg.DatabaseURL, *steps)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("direction", flag.Arg(0)).Msg("migration failed")
	}
	logger.Info().Str("direction", flag.Arg(0)).Msg("migration finished")
}
