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

// dbcheck resolves and validates the database configuration: it prints the
// resolved descriptor with the password redacted, tests connectivity,
// bootstraps the schema and counts stored rows. Exit code 0 means every
// check passed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomoncle/pokerdb/database"
	_ "github.com/tomoncle/pokerdb/models"
)

var (
	envFile string
	timeout time.Duration
	fkFile  string
)

var rootCmd = &cobra.Command{
	Use:          "dbcheck",
	Short:        "Validate database configuration and connectivity",
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file supplying defaults for absent variables")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "connectivity check timeout")
	rootCmd.Flags().StringVar(&fkFile, "fk-config", "", "optional YAML file overriding foreign key constraints")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := database.GetLogger()
	ctx := context.Background()

	logger.Info("=== Database Configuration Check ===")

	cfg, err := database.Resolve(&database.ResolveOptions{EnvFile: envFile})
	if err != nil {
		logger.Error("Configuration resolution failed", "error", err.Error())
		return err
	}
	logger.Info("Database configuration: " + cfg.Info())

	printEnvironment(logger)

	logger.Info("Testing database connection...")
	result := database.Validate(ctx, cfg, timeout)
	if !result.OK {
		logger.Error("Database connection failed", "kind", result.Err.Kind, "latency", result.Latency)
		return fmt.Errorf("database connection failed: %s", result.Err.Kind)
	}
	logger.Info("Database connection successful", "latency", result.Latency)

	logger.Info("Testing table creation...")
	database.EnableSQLSilent(true)
	defer database.EnableSQLSilent(false)
	sm := database.NewSchemaManager(logger, fkFile)
	if err := sm.EnsureSchemaFor(ctx, cfg); err != nil {
		logger.Error("Table creation failed", "error", err.Error())
		return err
	}
	logger.Info("Tables created/verified successfully")

	logger.Info("Testing basic database operations...")
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	for _, table := range database.RegisteredTables() {
		count, err := db.NewSelect().Table(table.Name()).Count(ctx)
		if err != nil {
			logger.Error("Database query failed", "table", table.Name(), "error", err.Error())
			return err
		}
		logger.Info("Row count", "table", table.Name(), "rows", count)
	}

	logger.Info("All database checks passed")
	return nil
}

// printEnvironment lists the configuration variables in effect, masking
// passwords and URL credentials.
func printEnvironment(logger database.Logger) {
	logger.Info("=== Environment Variables ===")
	vars := []string{
		"DATABASE_URL", "DATABASE_TYPE", "DATABASE_HOST", "DATABASE_PORT",
		"DATABASE_NAME", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_SSL_MODE", "DATABASE_CHARSET",
		"DATABASE_PATH", "DATABASE_POOL_SIZE", "FLASK_DEBUG",
	}
	for _, name := range vars {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		switch name {
		case "DATABASE_URL":
			value = database.RedactURL(value)
		case "DATABASE_PASSWORD":
			value = "***"
		}
		logger.Info(fmt.Sprintf("  %s=%s", name, value))
	}
}
