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
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Open creates a Bun database handle for the descriptor. The connection is
// owned by the caller and must be closed on every exit path; nothing here
// holds global state, so two descriptors (for example a migration source
// and target) can be open at the same time.
func Open(cfg *ConnectionConfig) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	switch cfg.Backend {
	case MySQL:
		sqlDB, db, err = openMySQL(cfg)
	case PostgreSQL:
		sqlDB, db, err = openPostgreSQL(cfg)
	case SQLite:
		sqlDB, db, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&SlowQueryHook{
			fromEnv:  "POKERDB_SLOW_QUERY_LOG",
			slowTime: cfg.SlowQueryTime,
			writer:   os.Stdout,
		})
	}

	return db, nil
}

func openMySQL(cfg *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	charset := cfg.Charset
	if charset == "" {
		charset = defaultCharset
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local&timeout=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		charset,
		cfg.ConnectTimeout,
	)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func openPostgreSQL(cfg *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		sslMode,
		int(cfg.ConnectTimeout.Seconds()),
	)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func openSQLite(cfg *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	if cfg.Path == "" {
		return nil, nil, newMissingField("path")
	}
	sqlDB, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}
