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

package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/pokerdb/database"
	"github.com/tomoncle/pokerdb/models"
)

func newSQLiteConfig(t *testing.T) *database.ConnectionConfig {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Backend = database.SQLite
	cfg.Path = filepath.Join(t.TempDir(), "schema.db")
	return cfg
}

func TestEnsureSchemaCreatesRegisteredTables(t *testing.T) {
	ctx := context.Background()
	cfg := newSQLiteConfig(t)

	sm := database.NewSchemaManager(nil, "")
	require.NoError(t, sm.EnsureSchemaFor(ctx, cfg))

	db, err := database.Open(cfg)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, table := range database.RegisteredTables() {
		count, err := db.NewSelect().Table(table.Name()).Count(ctx)
		require.NoError(t, err, "table %s should exist", table.Name())
		assert.Zero(t, count)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := newSQLiteConfig(t)

	sm := database.NewSchemaManager(nil, "")
	require.NoError(t, sm.EnsureSchemaFor(ctx, cfg))

	// Seed a row, bootstrap again, and confirm the data survived.
	db, err := database.Open(cfg)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	game := models.NewGame("Sprint 42", "fibonacci")
	_, err = db.NewInsert().Model(game).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, sm.EnsureSchemaFor(ctx, cfg))

	count, err := db.NewSelect().Model((*models.Game)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisteredTablesDependencyOrder(t *testing.T) {
	tables := database.RegisteredTables()
	require.GreaterOrEqual(t, len(tables), 2)

	gamesIdx, votesIdx := -1, -1
	for i, table := range tables {
		switch table.Name() {
		case "games":
			gamesIdx = i
		case "votes":
			votesIdx = i
		}
	}
	require.NotEqual(t, -1, gamesIdx)
	require.NotEqual(t, -1, votesIdx)
	assert.Less(t, gamesIdx, votesIdx, "parent tables come before their children")
}
