package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/shared"
)

// loadConfig reads path into the runner. An absent file keeps the current config.
func (r *Runner) loadConfig(path string) error {
	r.configPath = path
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.logger.SetLevel(shared.ParseLogLevel(config.Log.Level))

	if config.Log.File != "" {
		fileLogger, err := shared.NewFileLogger(config.Log.File)
		if err != nil {
			return err
		}
		fileLogger.SetLevel(shared.ParseLogLevel(config.Log.Level))
		r.SetLogger(fileLogger)
	}
	return nil
}

// Setup writes a default config when none exists, then creates the local database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.writePlain("✓ Config written to %s\n", configPath)
			if err := r.loadConfig(configPath); err != nil {
				return err
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	statuses, err := shared.Migrations(db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("  %s %04d %s\n", mark, s.Version, s.Name)
	}
	r.writePlainln("Next: vkx auth login --email you@example.com")
	return nil
}

// Rollback reverts the newest applied migration.
func (r *Runner) Rollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config and local database, run migrations",
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:   "rollback",
				Usage:  "Revert the latest database migration",
				Action: r.Rollback,
			},
		},
	}
}
