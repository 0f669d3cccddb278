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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConstraintName(t *testing.T) {
	fk := ForeignKeyConstraint{Table: "votes", Column: "game_uuid"}
	assert.Equal(t, "fk_votes_game_uuid", fk.GenerateConstraintName())

	fk.ConstraintName = "custom_name"
	assert.Equal(t, "custom_name", fk.GenerateConstraintName())
}

func TestGenerateSQL(t *testing.T) {
	fk := ForeignKeyConstraint{
		Table:           "votes",
		Column:          "game_uuid",
		ReferenceTable:  "games",
		ReferenceColumn: "uuid",
		OnDelete:        "CASCADE",
	}
	sql := fk.GenerateSQL()
	assert.Contains(t, sql, "ALTER TABLE votes ADD CONSTRAINT fk_votes_game_uuid")
	assert.Contains(t, sql, "FOREIGN KEY (game_uuid) REFERENCES games(uuid)")
	assert.Contains(t, sql, "ON DELETE CASCADE")
	assert.NotContains(t, sql, "ON UPDATE")
}

func TestValidateConstraintsRejectsBadAction(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{{
		Table:           "votes",
		Column:          "game_uuid",
		ReferenceTable:  "games",
		ReferenceColumn: "uuid",
		OnDelete:        "EXPLODE",
	}}}
	errs := fkm.ValidateConstraints()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "invalid delete policy")
}

func TestConfigurableForeignKeyManagerFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.yaml")
	content := `foreign_keys:
  - table: votes
    column: game_uuid
    reference_table: games
    reference_column: uuid
    on_delete: CASCADE
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	manager, err := NewConfigurableForeignKeyManager(nil, path)
	require.NoError(t, err)

	constraints := manager.ListAllConstraints()
	require.Len(t, constraints, 1)
	assert.Equal(t, "votes", constraints[0].Table)
	assert.Equal(t, "CASCADE", constraints[0].OnDelete)
	assert.Empty(t, manager.ValidateConstraints())
}

func TestConfigurableForeignKeyManagerFallsBack(t *testing.T) {
	manager, err := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, getForeignKeyConstraints(), manager.ListAllConstraints())
}
