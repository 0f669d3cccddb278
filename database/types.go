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
	"fmt"
	"time"

	"github.com/tomoncle/pokerdb/utils"
)

// Backend identifies one of the supported storage dialects. Resolution
// produces the tag once; all downstream code dispatches through it instead
// of comparing raw strings.
type Backend int

const (
	SQLite Backend = iota
	PostgreSQL
	MySQL
)

func (b Backend) String() string {
	switch b {
	case SQLite:
		return "sqlite"
	case PostgreSQL:
		return "postgresql"
	case MySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

// backendAliases normalizes the historical spellings accepted in URLs and
// DATABASE_TYPE. Anything outside this table is rejected.
var backendAliases = map[string]Backend{
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"mysql":      MySQL,
}

// ParseBackend maps a backend name or URL scheme to its tag.
func ParseBackend(name string) (Backend, bool) {
	b, ok := backendAliases[name]
	return b, ok
}

const (
	defaultSQLitePath      = "/data/database.db"
	defaultSQLiteDebugPath = "database.db"
	defaultPostgresPort    = 5432
	defaultMySQLPort       = 3306
	defaultSSLMode         = "prefer"
	defaultCharset         = "utf8mb4"
	defaultDatabaseName    = "planning_poker"
)

// ConnectionConfig is the resolved, immutable set of connection parameters
// for one backend instance. Which fields are required depends on the
// backend: sqlite needs only Path, postgresql/mysql need Host, Port, DBName,
// Username and Password. A new process start (or an explicit re-resolve) is
// the only way to obtain a different descriptor.
type ConnectionConfig struct {
	Backend  Backend `json:"backend"`
	Host     string  `json:"host,omitempty"`
	Port     int     `json:"port,omitempty"`
	DBName   string  `json:"dbname,omitempty"`
	Username string  `json:"username,omitempty"`
	Password string  `json:"-"`
	SSLMode  string  `json:"sslmode,omitempty"` // postgresql only
	Charset  string  `json:"charset,omitempty"` // mysql only
	Path     string  `json:"path,omitempty"`    // sqlite only

	MaxIdleConns    int           `json:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DefaultConnectionConfig returns a descriptor with pool and timeout
// defaults applied; backend fields are left for the resolver to fill.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnectTimeout:  time.Second * 10,
		EnableQueryLog:  utils.EnvDefaultBool("DATABASE_QUERY_LOG", false),
		SlowQueryTime:   time.Second * 2,
	}
}

// Info renders the descriptor for logs and CLI output. The password never
// appears in the rendered string.
func (c *ConnectionConfig) Info() string {
	switch c.Backend {
	case SQLite:
		return fmt.Sprintf("SQLite: %s", c.Path)
	case PostgreSQL:
		return fmt.Sprintf("PostgreSQL: %s@%s:%d/%s sslmode=%s", c.Username, c.Host, c.Port, c.DBName, c.SSLMode)
	case MySQL:
		return fmt.Sprintf("MySQL: %s@%s:%d/%s charset=%s", c.Username, c.Host, c.Port, c.DBName, c.Charset)
	default:
		return "unknown backend"
	}
}

func (c *ConnectionConfig) String() string { return c.Info() }

// ValidationResult is the outcome of a live connectivity check. It is always
// a value for the caller to inspect, never an error in itself.
type ValidationResult struct {
	OK      bool             `json:"ok"`
	Latency time.Duration    `json:"latency"`
	Err     *ConnectionError `json:"error,omitempty"`
}
