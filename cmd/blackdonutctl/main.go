// Command blackdonutctl runs maintenance tasks against the Black Donut database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"blackdonut/internal/config"
	"blackdonut/internal/database"
	"blackdonut/internal/middleware"
	"blackdonut/internal/repository"
	"blackdonut/internal/seed"
	"blackdonut/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blackdonutctl",
		Short:         "Maintenance commands for the Black Donut backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newReconcileCmd())
	return root
}

// connect loads configuration and opens the database.
func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var (
		preset string
		opts   = seed.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo partners, diners and food videos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if preset != "" {
				loaded, err := seed.LoadPreset(preset)
				if err != nil {
					return err
				}
				opts = loaded
			}
			db, err := connect()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			res, err := seed.Run(ctx, db, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded %d partners, %d users, %d foods, %d comments, %d likes, %d saves (password %q)\n",
				res.Partners, res.Users, res.Foods, res.Comments, res.Likes, res.Saves, seed.DefaultPassword)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "YAML preset file; overrides the count flags")
	f.IntVar(&opts.Partners, "partners", opts.Partners, "number of food partners")
	f.IntVar(&opts.FoodsPerPartner, "foods", opts.FoodsPerPartner, "foods per partner")
	f.IntVar(&opts.Users, "users", opts.Users, "number of users")
	f.IntVar(&opts.CommentsPerFood, "comments", opts.CommentsPerFood, "comments per food")
	f.BoolVar(&opts.Clean, "clean", false, "delete existing rows first")
	f.Int64Var(&opts.Seed, "seed", 0, "random seed; 0 picks one")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute like, save and comment counters from their rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			svc := service.NewEngagementService(repository.NewEngagementRepository(db), repository.NewFoodRepository(db))
			n, err := svc.ReconcileCounters(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d foods\n", n)
			return nil
		},
	}
}
