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
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ResolveOptions controls where the resolver reads configuration from.
// The zero value reads the real process environment with no .env file.
type ResolveOptions struct {
	// EnvFile is an optional .env-style file. Values from it are used only
	// for variables absent from the environment; real environment variables
	// always win.
	EnvFile string

	// Lookup overrides the environment source, mainly for tests.
	// Defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Resolve turns environment input into one immutable ConnectionConfig.
//
// Precedence, highest first:
//  1. DATABASE_URL, when present and non-empty, fully determines the
//     descriptor; discrete DATABASE_* variables are ignored.
//  2. Discrete variables (DATABASE_TYPE, DATABASE_HOST, DATABASE_PORT,
//     DATABASE_NAME, DATABASE_USER, DATABASE_PASSWORD, DATABASE_SSL_MODE,
//     DATABASE_CHARSET, DATABASE_PATH) combined with backend defaults.
//  3. Neither present: sqlite with the default path.
//
// Resolution has no side effects and performs no network I/O.
func Resolve(opts *ResolveOptions) (*ConnectionConfig, error) {
	if opts == nil {
		opts = &ResolveOptions{}
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var fileVars map[string]string
	if opts.EnvFile != "" {
		if vars, err := godotenv.Read(opts.EnvFile); err == nil {
			fileVars = vars
		}
	}

	get := func(key string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		if v, ok := fileVars[key]; ok {
			return v
		}
		return ""
	}

	cfg := DefaultConnectionConfig()

	if poolSize := get("DATABASE_POOL_SIZE"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil && n > 0 {
			cfg.MaxOpenConns = n
		}
	}

	if rawURL := get("DATABASE_URL"); rawURL != "" {
		if err := resolveFromURL(cfg, rawURL); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	typeName := strings.ToLower(get("DATABASE_TYPE"))
	if typeName == "" {
		typeName = "sqlite"
	}
	backend, ok := ParseBackend(typeName)
	if !ok {
		return nil, &ConfigError{Kind: UnsupportedBackend, Cause: typeName}
	}
	cfg.Backend = backend

	switch backend {
	case SQLite:
		cfg.Path = get("DATABASE_PATH")
		if cfg.Path == "" {
			cfg.Path = defaultSQLitePath
			if strings.EqualFold(get("FLASK_DEBUG"), "true") {
				cfg.Path = defaultSQLiteDebugPath
			}
		}
		return cfg, nil
	case PostgreSQL:
		cfg.Port = defaultPostgresPort
		cfg.SSLMode = defaultSSLMode
	case MySQL:
		cfg.Port = defaultMySQLPort
		cfg.Charset = defaultCharset
	}

	cfg.Host = get("DATABASE_HOST")
	cfg.DBName = get("DATABASE_NAME")
	if cfg.DBName == "" {
		cfg.DBName = defaultDatabaseName
	}
	cfg.Username = get("DATABASE_USER")
	cfg.Password = get("DATABASE_PASSWORD")
	if port := get("DATABASE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, &ConfigError{Kind: MalformedURL, Cause: "invalid DATABASE_PORT"}
		}
		cfg.Port = p
	}
	if sslMode := get("DATABASE_SSL_MODE"); sslMode != "" && backend == PostgreSQL {
		cfg.SSLMode = sslMode
	}
	if charset := get("DATABASE_CHARSET"); charset != "" && backend == MySQL {
		cfg.Charset = charset
	}

	return cfg, validateRequired(cfg)
}

// resolveFromURL parses DATABASE_URL into the descriptor. Recognized schemes
// are sqlite, postgresql and mysql plus their aliases.
func resolveFromURL(cfg *ConnectionConfig, rawURL string) error {
	scheme, rest, found := strings.Cut(rawURL, "://")
	if !found {
		// Bare "sqlite:path" form, kept for compatibility with older
		// deployments.
		if s, p, ok := strings.Cut(rawURL, ":"); ok {
			if backend, known := ParseBackend(strings.ToLower(s)); known && backend == SQLite && p != "" {
				cfg.Backend = SQLite
				cfg.Path = p
				return nil
			}
		}
		return &ConfigError{Kind: MalformedURL, Cause: "missing scheme separator"}
	}

	backend, ok := ParseBackend(strings.ToLower(scheme))
	if !ok {
		return &ConfigError{Kind: UnsupportedBackend, Cause: scheme}
	}
	cfg.Backend = backend

	if backend == SQLite {
		// sqlite:///absolute/path keeps the leading slash, sqlite://relative
		// does not.
		path := rest
		if strings.HasPrefix(rest, "/") {
			path = rest[1:]
			path = "/" + strings.TrimPrefix(path, "/")
		}
		if path == "" {
			return newMissingField("path")
		}
		cfg.Path = path
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &ConfigError{Kind: MalformedURL, Cause: "unparseable URL"}
	}

	cfg.Host = u.Hostname()
	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return &ConfigError{Kind: MalformedURL, Cause: "invalid port"}
		}
		cfg.Port = p
	} else {
		switch backend {
		case PostgreSQL:
			cfg.Port = defaultPostgresPort
		case MySQL:
			cfg.Port = defaultMySQLPort
		}
	}

	if u.User != nil {
		cfg.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	switch backend {
	case PostgreSQL:
		cfg.SSLMode = defaultSSLMode
		if v := query.Get("sslmode"); v != "" {
			cfg.SSLMode = v
		}
	case MySQL:
		cfg.Charset = defaultCharset
		if v := query.Get("charset"); v != "" {
			cfg.Charset = v
		}
	}

	return validateRequired(cfg)
}

// validateRequired enforces the backend-dependent field invariant.
func validateRequired(cfg *ConnectionConfig) error {
	if cfg.Backend == SQLite {
		if cfg.Path == "" {
			return newMissingField("path")
		}
		return nil
	}
	switch {
	case cfg.Host == "":
		return newMissingField("host")
	case cfg.Port == 0:
		return newMissingField("port")
	case cfg.DBName == "":
		return newMissingField("dbname")
	case cfg.Username == "":
		return newMissingField("username")
	case cfg.Password == "":
		return newMissingField("password")
	}
	return nil
}

// RedactURL masks the password component of a database URL for display.
// Anything that cannot be confidently parsed is fully masked.
func RedactURL(rawURL string) string {
	scheme, rest, found := strings.Cut(rawURL, "://")
	if !found {
		return rawURL
	}
	auth, hostPart, hasAuth := strings.Cut(rest, "@")
	if !hasAuth {
		return rawURL
	}
	user, _, hasPassword := strings.Cut(auth, ":")
	if !hasPassword {
		return rawURL
	}
	return scheme + "://" + user + ":***@" + hostPart
}
