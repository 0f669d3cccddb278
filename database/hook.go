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

package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
)

var sqlSilentMode bool

// EnableSQLSilent suppresses query hook output, used while bootstrap runs
// its own DDL so probe and CLI output stays readable.
func EnableSQLSilent(b bool) {
	sqlSilentMode = b
}

func colorWrap(s, code string) string { return fmt.Sprintf("%s%s%s", code, s, ansiReset) }

// SlowQueryHook prints queries slower than the configured threshold.
type SlowQueryHook struct {
	fromEnv  string
	enabled  bool
	slowTime time.Duration
	writer   io.Writer
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlSilentMode {
		return
	}
	if event.Err != nil {
		return
	}
	enabled := h.enabled
	if env, ok := os.LookupEnv(h.fromEnv); ok {
		enabled = strings.TrimSpace(env) == "1"
	}
	if !enabled {
		return
	}

	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	args := []interface{}{
		time.Now().Format("2006-01-02 15:04:05.000"),
		color.New(color.FgYellow).Sprintf("%12s", "[SLOW_SQL]"),
		fmt.Sprintf("%17s", duration.Round(time.Microsecond)),
		"  ", formatOperationColor(event),
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func formatOperationColor(event *bun.QueryEvent) string {
	switch event.Operation() {
	case "SELECT":
		return colorWrap(event.Query, ansiGreen)
	case "INSERT":
		return colorWrap(event.Query, ansiBlue)
	case "UPDATE":
		return colorWrap(event.Query, ansiYellow)
	case "DELETE":
		return colorWrap(event.Query, ansiMagenta)
	default:
		return colorWrap(event.Query, ansiRed)
	}
}
