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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestSchemaVersion marks the persisted file format for forward
// compatibility across format changes.
const ManifestSchemaVersion = 1

// Row is one table row, column name to scalar value.
type Row map[string]interface{}

// TableData holds every row of one table.
type TableData struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// Manifest is the backend-agnostic representation of an entire database's
// row data. Table order follows foreign-key dependency order (parents
// before children) so a manifest can be replayed into an empty target
// without constraint violations. Row order within a table carries no
// semantic meaning.
type Manifest struct {
	SchemaVersion int         `json:"schema_version"`
	ExportedAt    time.Time   `json:"exported_at"`
	Source        string      `json:"source,omitempty"`
	Tables        []TableData `json:"tables"`
}

// Table returns the named table's data, or nil when absent.
func (m *Manifest) Table(name string) *TableData {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}
	return nil
}

// RowCount returns the total number of rows across all tables.
func (m *Manifest) RowCount() int {
	total := 0
	for _, t := range m.Tables {
		total += len(t.Rows)
	}
	return total
}

// WriteFile persists the manifest as indented JSON, creating parent
// directories as needed.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// ReadManifestFile loads and validates a persisted manifest. Numbers are
// decoded with UseNumber and normalized so integer primary keys survive
// the round trip verbatim instead of degrading to float64.
func ReadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MigrationError{Kind: ManifestParseError, Err: err}
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var manifest Manifest
	if err := decoder.Decode(&manifest); err != nil {
		return nil, &MigrationError{Kind: ManifestParseError, Err: err}
	}
	if manifest.SchemaVersion > ManifestSchemaVersion {
		return nil, &MigrationError{
			Kind: ManifestParseError,
			Err:  fmt.Errorf("manifest schema version %d is newer than supported version %d", manifest.SchemaVersion, ManifestSchemaVersion),
		}
	}

	for _, table := range manifest.Tables {
		for _, row := range table.Rows {
			normalizeRow(row)
		}
	}
	return &manifest, nil
}

// normalizeRow converts json.Number values to int64 when integral, float64
// otherwise.
func normalizeRow(row Row) {
	for col, val := range row {
		num, ok := val.(json.Number)
		if !ok {
			continue
		}
		if i, err := num.Int64(); err == nil {
			row[col] = i
			continue
		}
		if f, err := num.Float64(); err == nil {
			row[col] = f
		}
	}
}

// DefaultBackupFilename returns a timestamped file name for safety backups.
func DefaultBackupFilename() string {
	return fmt.Sprintf("pokerdb_backup_%s.json", time.Now().Format("20060102_150405"))
}
