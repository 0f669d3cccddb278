/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// dbmigrate moves row data between storage backends. The target database
// is always the one resolved from the environment; a migration source is a
// sqlite file given on the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomoncle/pokerdb/database"
	"github.com/tomoncle/pokerdb/migrate"
	_ "github.com/tomoncle/pokerdb/models"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "dbmigrate",
	Short:        "Export, import, migrate, back up and restore database contents",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file supplying defaults for absent variables")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveTarget resolves the environment-configured descriptor and checks
// connectivity before any data operation runs against it.
func resolveTarget(ctx context.Context) (*database.ConnectionConfig, error) {
	cfg, err := database.Resolve(&database.ResolveOptions{EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	result := database.Validate(ctx, cfg, 30*time.Second)
	if !result.OK {
		return nil, fmt.Errorf("cannot connect to database (%s): %s", cfg.Info(), result.Err.Kind)
	}
	return cfg, nil
}

func sqliteSource(path string) *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Backend = database.SQLite
	cfg.Path = path
	return cfg
}

var exportCmd = &cobra.Command{
	Use:   "export <output.json>",
	Short: "Export the configured database to a manifest file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		engine := migrate.NewEngine(database.GetLogger())
		manifest, err := engine.Backup(ctx, cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d rows to %s\n", manifest.RowCount(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <manifest.json>",
	Short: "Import a manifest file into the configured database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestore(args[0])
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <manifest.json>",
	Short: "Restore a backup file into the configured database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestore(args[0])
	},
}

func runRestore(path string) error {
	ctx := context.Background()
	cfg, err := resolveTarget(ctx)
	if err != nil {
		return err
	}
	engine := migrate.NewEngine(database.GetLogger())
	counts, err := engine.Restore(ctx, path, cfg)
	if err != nil {
		return err
	}
	for table, n := range counts {
		fmt.Printf("Imported %d rows into %s\n", n, table)
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <source.db>",
	Short: "Migrate a sqlite database into the configured target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		target, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		engine := migrate.NewEngine(database.GetLogger())
		counts, err := engine.Migrate(ctx, sqliteSource(args[0]), target)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		fmt.Printf("Migration completed: %d rows into %s\n", total, target.Info())
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup [output.json]",
	Short: "Back up the configured database to a manifest file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		path := migrate.DefaultBackupFilename()
		if len(args) > 0 {
			path = args[0]
		}
		engine := migrate.NewEngine(database.GetLogger())
		manifest, err := engine.Backup(ctx, cfg, path)
		if err != nil {
			return err
		}
		fmt.Printf("Backup completed: %d rows saved to %s\n", manifest.RowCount(), path)
		return nil
	},
}
