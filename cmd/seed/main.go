// seed populates an empty ticket store with demo tickets. It uses the same
// environment configuration as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/bootstrap"
	"github.com/spec-kit/trouble-ticket/internal/clock"
	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/observability"
	"github.com/spec-kit/trouble-ticket/internal/seed"
	"github.com/spec-kit/trouble-ticket/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var fixturesPath string
	var dryRun bool

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&fixturesPath, "fixtures", "", "YAML fixture file (default: built-in demo tickets)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the resolved tickets without writing them")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	fixtures, err := loadFixtures(fixturesPath)
	if err != nil {
		return err
	}
	inputs := seed.Resolve(fixtures, clock.Real().Now())

	if dryRun {
		for _, in := range inputs {
			fmt.Printf("%-9s p%d %-12s %s\n", in.Severity, in.Priority, in.Status, in.Description)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: store.Tickets,
		Logger:     logger,
	})
	result, err := ticketService.Seed(ctx, inputs)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Println("Store already contains tickets. Skipping seed.")
		return nil
	}
	logger.Info("seed complete", zap.Int("inserted", result.Inserted), zap.String("driver", cfg.Store.Driver))
	fmt.Printf("Seeded %d sample trouble tickets.\n", result.Inserted)
	return nil
}

func loadFixtures(path string) ([]seed.Fixture, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: seed [flags]\n\nSeeds the configured ticket store when it is empty.\n\nFlags:\n")
	flagSet.PrintDefaults()
}
