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
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConfigErrorKind classifies configuration resolution failures. They are
// always fatal to process startup and never retried.
type ConfigErrorKind int

const (
	MissingField ConfigErrorKind = iota
	MalformedURL
	UnsupportedBackend
)

func (k ConfigErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case MalformedURL:
		return "malformed_url"
	case UnsupportedBackend:
		return "unsupported_backend"
	default:
		return "config_error"
	}
}

// ConfigError reports why the environment could not be resolved into a
// valid descriptor. The message never includes credentials or the raw
// DATABASE_URL value.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string // set for MissingField
	Cause string
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("database config: missing required field %q", e.Field)
	case MalformedURL:
		return fmt.Sprintf("database config: malformed DATABASE_URL: %s", e.Cause)
	case UnsupportedBackend:
		return fmt.Sprintf("database config: unsupported backend %q", e.Cause)
	default:
		return "database config: invalid configuration"
	}
}

func newMissingField(field string) *ConfigError {
	return &ConfigError{Kind: MissingField, Field: field}
}

// ConnErrorKind classifies connectivity failures. These are reported as
// data inside a ValidationResult and are never fatal by themselves.
type ConnErrorKind int

const (
	AuthFailure ConnErrorKind = iota
	NetworkUnreachable
	Timeout
	UnknownBackendError
)

func (k ConnErrorKind) String() string {
	switch k {
	case AuthFailure:
		return "auth_failure"
	case NetworkUnreachable:
		return "network_unreachable"
	case Timeout:
		return "timeout"
	default:
		return "unknown_backend_error"
	}
}

// ConnectionError wraps a driver error with its classification.
type ConnectionError struct {
	Kind    ConnErrorKind
	Backend Backend
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed (%s): %v", e.Backend, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ClassifyConnError maps a driver-level failure onto the connection error
// taxonomy. Postgres is classified by SQLSTATE, MySQL by errno, everything
// else by the usual net/context error shapes.
func ClassifyConnError(backend Backend, err error) *ConnectionError {
	if err == nil {
		return nil
	}

	kind := UnknownBackendError

	var pqErr *pq.Error
	var myErr *mysql.MySQLError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = Timeout
	case errors.As(err, &pqErr):
		// 28000 invalid_authorization_specification, 28P01 invalid_password
		if pqErr.Code == "28000" || pqErr.Code == "28P01" {
			kind = AuthFailure
		}
	case errors.As(err, &myErr):
		// 1044 access denied for db, 1045 access denied for user
		if myErr.Number == 1044 || myErr.Number == 1045 {
			kind = AuthFailure
		}
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			kind = Timeout
		} else {
			kind = NetworkUnreachable
		}
	}

	if kind == UnknownBackendError {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "connection refused"),
			strings.Contains(s, "no such host"),
			strings.Contains(s, "network is unreachable"),
			strings.Contains(s, "no route to host"):
			kind = NetworkUnreachable
		case strings.Contains(s, "i/o timeout"),
			strings.Contains(s, "timeout"):
			kind = Timeout
		case strings.Contains(s, "authentication failed"),
			strings.Contains(s, "access denied"),
			strings.Contains(s, "password authentication"):
			kind = AuthFailure
		}
	}

	return &ConnectionError{Kind: kind, Backend: backend, Err: err}
}

// SQLError classifies backend SQL failures that schema bootstrap and data
// import care about.
type SQLError int

const (
	UnknownErr SQLError = iota
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
)

// IsSQLError reports whether err is a recognized SQL failure and which one.
// MySQL is matched by errno; postgres and sqlite by SQLSTATE or message.
func IsSQLError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1050:
			return true, ExistTableErr
		case 1062:
			return true, DuplicateKeyErr
		case 1048:
			return true, NotNullViolationErr
		case 1216, 1217, 1451, 1452:
			return true, ForeignKeyViolationErr
		default:
			return true, UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "sqlstate 42p07") ||
		(strings.Contains(s, "already exists") &&
			(strings.Contains(s, "table") || strings.Contains(s, "relation"))) {
		return true, ExistTableErr
	}
	if strings.Contains(s, "duplicate key value") ||
		strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "sqlstate 23505") {
		return true, DuplicateKeyErr
	}
	if strings.Contains(s, "not-null constraint") ||
		strings.Contains(s, "not null constraint failed") ||
		strings.Contains(s, "sqlstate 23502") {
		return true, NotNullViolationErr
	}
	if strings.Contains(s, "foreign key violation") ||
		strings.Contains(s, "foreign key constraint failed") ||
		strings.Contains(s, "sqlstate 23503") {
		return true, ForeignKeyViolationErr
	}
	return false, UnknownErr
}
