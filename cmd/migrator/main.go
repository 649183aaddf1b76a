package main

import (
	"errors"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/spf13/pflag"
)

const (
	configFlag = "config"
	downFlag   = "down"
	stepsFlag  = "steps"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	configFile := pflag.StringP(configFlag, "c", "", "optional config file layered under environment variables")
	down := pflag.BoolP(downFlag, "d", false, "roll back instead of applying migrations")
	steps := pflag.IntP(stepsFlag, "n", 1, "number of migrations to roll back with --down")
	pflag.Parse()

	if !*down && pflag.CommandLine.Changed(stepsFlag) {
		return errors.New("--steps flag: only valid with --down")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger).With().Str("component", "migrator").Logger()
	connString := cfg.Database.ConnectionString()

	if *down {
		return database.Rollback(connString, *steps, logger)
	}
	return database.Migrate(connString, logger)
}
