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

// healthcheck is invoked by liveness/readiness probes. Exit code 0 means
// healthy, 1 means unhealthy; the exit code is the entire contract.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomoncle/pokerdb/database"
	"github.com/tomoncle/pokerdb/health"
	_ "github.com/tomoncle/pokerdb/models"
)

var (
	appURL  string
	envFile string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "healthcheck [app|db|full]",
	Short:        "Check application and database health",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		checkType := "app"
		if len(args) > 0 {
			checkType = args[0]
		}
		os.Exit(run(checkType))
	},
}

func init() {
	rootCmd.Flags().StringVar(&appURL, "app-url", health.DefaultAppURL, "application liveness endpoint")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file supplying defaults for absent variables")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-check timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(checkType string) int {
	ctx := context.Background()

	var cfg *database.ConnectionConfig
	if checkType == "db" || checkType == "full" {
		var err error
		cfg, err = database.Resolve(&database.ResolveOptions{EnvFile: envFile})
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			return 1
		}
	}
	probe := health.NewProbe(appURL, cfg, database.GetLogger())

	switch checkType {
	case "app":
		status := probe.CheckApp(ctx, timeout)
		return report(status.Healthy(), status.Detail)
	case "db":
		status := probe.CheckDatabase(ctx, timeout)
		return report(status.Healthy(), status.Detail)
	case "full":
		app, db, healthy := probe.CheckFull(ctx, timeout)
		if healthy {
			return report(true, "application and database are healthy")
		}
		detail := ""
		if !app.Healthy() {
			detail = app.Detail
		}
		if !db.Healthy() {
			if detail != "" {
				detail += ", "
			}
			detail += db.Detail
		}
		return report(false, detail)
	default:
		fmt.Printf("Usage: healthcheck [app|db|full]\n")
		return 1
	}
}

func report(healthy bool, detail string) int {
	if healthy {
		fmt.Printf("OK: %s\n", detail)
	} else {
		fmt.Printf("ERROR: %s\n", detail)
	}
	return health.ExitCode(healthy)
}
