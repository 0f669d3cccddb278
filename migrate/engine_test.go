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

package migrate_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/pokerdb/database"
	"github.com/tomoncle/pokerdb/migrate"
	"github.com/tomoncle/pokerdb/models"
)

func newSQLiteConfig(t *testing.T, name string) *database.ConnectionConfig {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Backend = database.SQLite
	cfg.Path = filepath.Join(t.TempDir(), name)
	return cfg
}

func bootstrap(t *testing.T, cfg *database.ConnectionConfig) {
	t.Helper()
	sm := database.NewSchemaManager(nil, "")
	require.NoError(t, sm.EnsureSchemaFor(context.Background(), cfg))
}

// seedGamesAndVotes inserts nGames games and distributes nVotes votes among
// them, returning the generated game identifiers.
func seedGamesAndVotes(t *testing.T, cfg *database.ConnectionConfig, nGames, nVotes int) []string {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(cfg)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	uuids := make([]string, 0, nGames)
	for i := 0; i < nGames; i++ {
		game := models.NewGame(fmt.Sprintf("Game %d", i+1), "fibonacci")
		_, err := db.NewInsert().Model(game).Exec(ctx)
		require.NoError(t, err)
		uuids = append(uuids, game.UUID)
	}
	for i := 0; i < nVotes; i++ {
		vote := &models.Vote{
			GameUUID:   uuids[i%len(uuids)],
			PlayerName: fmt.Sprintf("player-%d", i+1),
			Value:      "5",
		}
		_, err := db.NewInsert().Model(vote).Exec(ctx)
		require.NoError(t, err)
	}
	return uuids
}

func TestExportEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := newSQLiteConfig(t, "empty.db")
	bootstrap(t, cfg)

	engine := migrate.NewEngine(nil)
	manifest, err := engine.Export(ctx, cfg)
	require.NoError(t, err)

	assert.Equal(t, migrate.ManifestSchemaVersion, manifest.SchemaVersion)
	require.Len(t, manifest.Tables, len(database.RegisteredTables()))
	for _, table := range manifest.Tables {
		assert.Empty(t, table.Rows, "table %s should export zero rows", table.Name)
	}
	assert.Zero(t, manifest.RowCount())
}

func TestMigratePreservesRowsAndKeys(t *testing.T) {
	t.Chdir(t.TempDir()) // safety backup lands in the working directory
	ctx := context.Background()

	source := newSQLiteConfig(t, "source.db")
	bootstrap(t, source)
	uuids := seedGamesAndVotes(t, source, 3, 7)

	target := newSQLiteConfig(t, "target.db")

	engine := migrate.NewEngine(nil)
	counts, err := engine.Migrate(ctx, source, target)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["games"])
	assert.Equal(t, 7, counts["votes"])

	// A safety backup must exist before the import ran.
	backups, err := filepath.Glob("pokerdb_backup_*.json")
	require.NoError(t, err)
	assert.NotEmpty(t, backups)

	db, err := database.Open(target)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var games []models.Game
	require.NoError(t, db.NewSelect().Model(&games).Scan(ctx))
	require.Len(t, games, 3)
	migrated := make(map[string]bool)
	for _, g := range games {
		migrated[g.UUID] = true
	}
	for _, u := range uuids {
		assert.True(t, migrated[u], "game %s should keep its identifier", u)
	}

	// Votes must still reference their original games.
	var votes []models.Vote
	require.NoError(t, db.NewSelect().Model(&votes).Scan(ctx))
	require.Len(t, votes, 7)
	for _, v := range votes {
		assert.True(t, migrated[v.GameUUID], "vote %d references migrated game", v.ID)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	source := newSQLiteConfig(t, "source.db")
	bootstrap(t, source)
	seedGamesAndVotes(t, source, 2, 4)

	backupFile := filepath.Join(t.TempDir(), "backup.json")
	engine := migrate.NewEngine(nil)
	manifest, err := engine.Backup(ctx, source, backupFile)
	require.NoError(t, err)
	assert.Equal(t, 6, manifest.RowCount())

	target := newSQLiteConfig(t, "restored.db")
	counts, err := engine.Restore(ctx, backupFile, target)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["games"])
	assert.Equal(t, 4, counts["votes"])

	// Exporting both databases must yield the same row sets per table.
	srcManifest, err := engine.Export(ctx, source)
	require.NoError(t, err)
	dstManifest, err := engine.Export(ctx, target)
	require.NoError(t, err)

	assert.ElementsMatch(t, rowSet(t, srcManifest, "games", "uuid", "name", "deck"),
		rowSet(t, dstManifest, "games", "uuid", "name", "deck"))
	assert.ElementsMatch(t, rowSet(t, srcManifest, "votes", "id", "game_uuid", "player_name", "value"),
		rowSet(t, dstManifest, "votes", "id", "game_uuid", "player_name", "value"))
}

// rowSet renders the named columns of every row in a table as comparable
// strings, independent of row order.
func rowSet(t *testing.T, m *migrate.Manifest, table string, cols ...string) []string {
	t.Helper()
	data := m.Table(table)
	require.NotNil(t, data, "manifest should contain table %s", table)

	out := make([]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		key := ""
		for _, col := range cols {
			key += fmt.Sprintf("%v|", row[col])
		}
		out = append(out, key)
	}
	return out
}

func TestImportRollsBackOnFailingRow(t *testing.T) {
	ctx := context.Background()

	target := newSQLiteConfig(t, "target.db")
	bootstrap(t, target)

	db, err := database.Open(target)
	require.NoError(t, err)
	existing := models.NewGame("Already here", "fibonacci")
	_, err = db.NewInsert().Model(existing).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Second row collides with the pre-existing primary key; the first row
	// must not survive the rollback.
	manifest := &migrate.Manifest{
		SchemaVersion: migrate.ManifestSchemaVersion,
		Tables: []migrate.TableData{{
			Name: "games",
			Rows: []migrate.Row{
				{"uuid": "11111111-1111-1111-1111-111111111111", "name": "New game", "deck": "fibonacci"},
				{"uuid": existing.UUID, "name": "Collision", "deck": "fibonacci"},
			},
		}},
	}

	engine := migrate.NewEngine(nil)
	_, err = engine.Import(ctx, manifest, target)
	require.Error(t, err)

	var migErr *migrate.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, migrate.PartialImportFailure, migErr.Kind)
	assert.Equal(t, "games", migErr.Table)
	assert.Contains(t, migErr.RowKey, existing.UUID)

	db, err = database.Open(target)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var games []models.Game
	require.NoError(t, db.NewSelect().Model(&games).Scan(ctx))
	require.Len(t, games, 1, "rollback leaves the target exactly as it was")
	assert.Equal(t, existing.UUID, games[0].UUID)
}

func TestReadManifestFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := migrate.ReadManifestFile(path)
	require.Error(t, err)
	var migErr *migrate.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, migrate.ManifestParseError, migErr.Kind)
}

func TestReadManifestFileRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.json")
	content := fmt.Sprintf(`{"schema_version": %d, "tables": []}`, migrate.ManifestSchemaVersion+1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := migrate.ReadManifestFile(path)
	require.Error(t, err)
	var migErr *migrate.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, migrate.ManifestParseError, migErr.Kind)
}

func TestManifestIntegerKeysSurviveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	manifest := &migrate.Manifest{
		SchemaVersion: migrate.ManifestSchemaVersion,
		Tables: []migrate.TableData{{
			Name: "votes",
			Rows: []migrate.Row{{"id": int64(9007199254740993), "game_uuid": "g", "player_name": "p", "value": "3"}},
		}},
	}
	require.NoError(t, manifest.WriteFile(path))

	loaded, err := migrate.ReadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), loaded.Table("votes").Rows[0]["id"])
}
