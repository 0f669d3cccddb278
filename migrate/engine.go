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

package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/pokerdb/database"
)

// Engine moves row data between descriptors. Every operation opens its own
// connections from the descriptors it is given and releases them on every
// exit path; nothing is shared across calls, so a source and a target can
// be handled in the same invocation.
type Engine struct {
	logger database.Logger
	schema *database.SchemaManager
}

// NewEngine returns a migration engine using the given logger.
func NewEngine(logger database.Logger) *Engine {
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Engine{
		logger: logger,
		schema: database.NewSchemaManager(logger, ""),
	}
}

// Export reads every known table in dependency order without mutating
// state. A freshly created, empty database yields a manifest with every
// table present and zero rows; that is success, not an error.
func (e *Engine) Export(ctx context.Context, cfg *database.ConnectionConfig) (*Manifest, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	manifest := &Manifest{
		SchemaVersion: ManifestSchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Source:        cfg.Info(),
	}

	for _, table := range database.RegisteredTables() {
		rows := make([]map[string]interface{}, 0)
		err := db.NewSelect().
			ColumnExpr("*").
			Table(table.Name()).
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to export table %q: %w", table.Name(), err)
		}

		data := TableData{Name: table.Name(), Rows: make([]Row, 0, len(rows))}
		for _, r := range rows {
			data.Rows = append(data.Rows, Row(r))
		}
		manifest.Tables = append(manifest.Tables, data)
	}

	e.logger.Info("Export completed", "tables", len(manifest.Tables), "rows", manifest.RowCount())
	return manifest, nil
}

// Import replays a manifest into the target. The schema is bootstrapped
// first, then all inserts run inside one transaction: any single failing
// row rolls back the entire import, leaving the target exactly as it was.
// Primary keys are inserted verbatim so cross-table references survive.
func (e *Engine) Import(ctx context.Context, manifest *Manifest, cfg *database.ConnectionConfig) (map[string]int, error) {
	if manifest == nil {
		return nil, &MigrationError{Kind: ManifestParseError, Err: fmt.Errorf("manifest is nil")}
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	if err := e.schema.EnsureSchemaWithConstraints(ctx, db, cfg.Backend); err != nil {
		return nil, &MigrationError{Kind: SchemaCreateFailed, Err: err}
	}

	counts := make(map[string]int)
	err = db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, table := range manifest.Tables {
			for _, row := range table.Rows {
				values := map[string]interface{}(row)
				_, err := tx.NewInsert().
					Model(&values).
					TableExpr(table.Name).
					Exec(ctx)
				if err != nil {
					return &MigrationError{
						Kind:   PartialImportFailure,
						Table:  table.Name,
						RowKey: rowKey(table.Name, row),
						Err:    err,
					}
				}
				counts[table.Name]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Import completed", "tables", len(manifest.Tables), "rows", manifest.RowCount())
	return counts, nil
}

// Migrate is Export(source) followed by Import(target), with a timestamped
// safety backup written between the two steps. It exposes the same
// atomicity guarantee as Import: the target either ends with the full
// dataset or is left untouched.
func (e *Engine) Migrate(ctx context.Context, source, target *database.ConnectionConfig) (map[string]int, error) {
	manifest, err := e.Export(ctx, source)
	if err != nil {
		return nil, err
	}

	backupFile := DefaultBackupFilename()
	if err := manifest.WriteFile(backupFile); err != nil {
		return nil, err
	}
	e.logger.Info("Safety backup created", "file", backupFile)

	return e.Import(ctx, manifest, target)
}

// Backup serializes the database's manifest to a file.
func (e *Engine) Backup(ctx context.Context, cfg *database.ConnectionConfig, path string) (*Manifest, error) {
	manifest, err := e.Export(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := manifest.WriteFile(path); err != nil {
		return nil, err
	}
	e.logger.Info("Backup saved", "file", path, "rows", manifest.RowCount())
	return manifest, nil
}

// Restore replays a manifest file into the target database.
func (e *Engine) Restore(ctx context.Context, path string, cfg *database.ConnectionConfig) (map[string]int, error) {
	manifest, err := ReadManifestFile(path)
	if err != nil {
		return nil, err
	}
	return e.Import(ctx, manifest, cfg)
}

// rowKey renders the identifying key of a row for error reports, using the
// registered primary key columns when the table is known.
func rowKey(tableName string, row Row) string {
	var pks []string
	for _, table := range database.RegisteredTables() {
		if table.Name() == tableName {
			pks = table.PKColumns()
			break
		}
	}
	if len(pks) == 0 {
		// Unknown table: fall back to every column, sorted for stability.
		for col := range row {
			pks = append(pks, col)
		}
		sort.Strings(pks)
	}

	parts := make([]string, 0, len(pks))
	for _, pk := range pks {
		parts = append(parts, fmt.Sprintf("%s=%v", pk, row[pk]))
	}
	return strings.Join(parts, ",")
}
