package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenmap/plant-service/internal/application/services"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/db/gormstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer gormstore.Close(db) //nolint:errcheck

		if err := gormstore.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("Database migrated")
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the plant wiki from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := services.LoadWikiSeed(seedFile)
		if err != nil {
			return err
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer gormstore.Close(db) //nolint:errcheck
		if err := gormstore.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		n, err := services.NewWikiService(gormstore.NewWikiRepository(db), log).Seed(cmd.Context(), entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d wiki entries\n", n)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var promoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant the admin role to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer gormstore.Close(db) //nolint:errcheck

		// the cached profile must drop the old role
		redis := newRedis(cmd.Context(), cfg, log)
		defer redis.Close() //nolint:errcheck

		users := services.NewUserService(
			gormstore.NewUserRepository(db),
			gormstore.NewIdempotencyRepository(db),
			redis,
			infrastructure.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
			nil,
			nil,
			nil,
			nil,
			log,
		)
		res, err := users.PromoteUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", res.Result.Username, res.Result.Role)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "wiki.yaml", "path to the wiki YAML file")
	userCmd.AddCommand(promoteCmd)
}
