// Command treatctl is an operator tool for the treat wheel.
//
// Usage:
//
//	treatctl replay --seed 3f9c... --items 5
//	treatctl replay --seed 3f9c... --items 5 --config treats.yaml
//	treatctl eligibility --user 1
//	treatctl config
//	treatctl migrate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/adapter/postgres"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/app"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/config"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/treats"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "treatctl",
		Short:        "Treat wheel operator tool",
		SilenceUsage: true,
	}

	root.AddCommand(replayCmd())
	root.AddCommand(eligibilityCmd())
	root.AddCommand(configCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// replay command
// --------------------------------------------------------------------------

func replayCmd() *cobra.Command {
	var (
		seed       string
		items      int
		configFile string
		client     bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Derive the outcome a stored seed produces",
		Long: "Replays the draw for a seed against a catalogue of --items entries. " +
			"Stored spin seeds are used as-is; pass --client to trim a raw client seed first, as a spin does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == "" {
				return errors.New("--seed is required")
			}
			cfg, err := loadTreats(configFile)
			if err != nil {
				return err
			}
			if client {
				seed = treats.BuildSeed(seed)
			}
			outcome, err := treats.Draw(items, cfg, seed)
			if err != nil {
				return err
			}
			return printJSON(cmd, outcome)
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "Spin seed")
	cmd.Flags().IntVar(&items, "items", 1, "Catalogue size at spin time")
	cmd.Flags().StringVar(&configFile, "config", "", "Treat configuration YAML (overrides TREAT_CONFIG_FILE)")
	cmd.Flags().BoolVar(&client, "client", false, "Trim --seed the way a spin trims a client seed")
	return cmd
}

// --------------------------------------------------------------------------
// eligibility command
// --------------------------------------------------------------------------

func eligibilityCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Evaluate a user's spin eligibility now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user is required")
			}
			return withDB(func(ctx context.Context, cfg *config.Config, db *postgres.DB) error {
				svc := app.NewTreatService(app.TreatRepos{
					Users:        db,
					Measurements: db,
					Items:        db,
					Spins:        db,
				}, nil, cfg.Treats, clock.Real{})
				elig, err := svc.ComputeEligibility(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, elig)
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	return cmd
}

// --------------------------------------------------------------------------
// config command
// --------------------------------------------------------------------------

func configCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective treat configuration (defaults, file, TREAT_* env) as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTreats(configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "Treat configuration YAML (overrides TREAT_CONFIG_FILE)")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, cfg *config.Config, db *postgres.DB) error {
				// Open already migrated; run again so the command reports errors explicitly.
				if err := db.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Info("schema up to date")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func withDB(fn func(ctx context.Context, cfg *config.Config, db *postgres.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(ctx, cfg, db)
}

// loadTreats resolves the treat configuration the server would use, with an
// explicit --config path taking the place of TREAT_CONFIG_FILE.
func loadTreats(path string) (treats.Config, error) {
	if path == "" {
		path = os.Getenv("TREAT_CONFIG_FILE")
	}
	return config.LoadTreats(path)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
