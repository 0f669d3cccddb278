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
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyConnErrorTimeout(t *testing.T) {
	connErr := ClassifyConnError(PostgreSQL, context.DeadlineExceeded)
	require.NotNil(t, connErr)
	assert.Equal(t, Timeout, connErr.Kind)
	assert.Equal(t, PostgreSQL, connErr.Backend)
}

func TestClassifyConnErrorPostgresAuth(t *testing.T) {
	pqErr := &pq.Error{Code: "28P01", Message: "password authentication failed"}
	connErr := ClassifyConnError(PostgreSQL, pqErr)
	assert.Equal(t, AuthFailure, connErr.Kind)
}

func TestClassifyConnErrorMySQLAuth(t *testing.T) {
	myErr := &mysql.MySQLError{Number: 1045, Message: "Access denied for user"}
	connErr := ClassifyConnError(MySQL, myErr)
	assert.Equal(t, AuthFailure, connErr.Kind)
}

func TestClassifyConnErrorRefused(t *testing.T) {
	err := fmt.Errorf("dial tcp 127.0.0.1:5432: connect: connection refused")
	connErr := ClassifyConnError(PostgreSQL, err)
	assert.Equal(t, NetworkUnreachable, connErr.Kind)
}

func TestClassifyConnErrorUnknown(t *testing.T) {
	connErr := ClassifyConnError(MySQL, errors.New("something odd happened"))
	assert.Equal(t, UnknownBackendError, connErr.Kind)
}

func TestClassifyConnErrorNil(t *testing.T) {
	assert.Nil(t, ClassifyConnError(SQLite, nil))
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	connErr := ClassifyConnError(SQLite, cause)
	assert.ErrorIs(t, connErr, cause)
}

func TestIsSQLErrorExistingTable(t *testing.T) {
	cases := []error{
		errors.New(`ERROR: relation "games" already exists (SQLSTATE 42P07)`),
		errors.New(`table "games" already exists`),
		&mysql.MySQLError{Number: 1050, Message: "Table 'games' already exists"},
	}
	for _, err := range cases {
		is, kind := IsSQLError(err)
		assert.True(t, is, err.Error())
		assert.Equal(t, ExistTableErr, kind, err.Error())
	}
}

func TestIsSQLErrorDuplicateKey(t *testing.T) {
	cases := []error{
		errors.New("UNIQUE constraint failed: games.uuid"),
		errors.New(`duplicate key value violates unique constraint "games_pkey" (SQLSTATE 23505)`),
		&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
	}
	for _, err := range cases {
		is, kind := IsSQLError(err)
		assert.True(t, is, err.Error())
		assert.Equal(t, DuplicateKeyErr, kind, err.Error())
	}
}

func TestIsSQLErrorUnrecognized(t *testing.T) {
	is, kind := IsSQLError(errors.New("syntax error near SELECT"))
	assert.False(t, is)
	assert.Equal(t, UnknownErr, kind)
}
