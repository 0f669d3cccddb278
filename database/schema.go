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
	"fmt"

	"github.com/uptrace/bun"
)

// SchemaError reports which table bootstrap could not create.
type SchemaError struct {
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema create failed for table %q: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// SchemaManager bootstraps the required tables for one backend. It is
// additive-only: it never drops, alters, or migrates existing columns.
type SchemaManager struct {
	logger Logger
	fkFile string
}

// NewSchemaManager returns a schema manager. fkFile optionally points at a
// YAML file overriding the code-defined foreign key constraints; pass ""
// to use the registered defaults.
func NewSchemaManager(logger Logger, fkFile string) *SchemaManager {
	return &SchemaManager{logger: logger, fkFile: fkFile}
}

// EnsureSchema creates every registered table with create-if-not-exists
// semantics, in dependency order. Safe to call repeatedly and from multiple
// service replicas pointed at the same database: a "table already exists"
// race is success, not failure.
func (sm *SchemaManager) EnsureSchema(ctx context.Context, db bun.IDB) error {
	for _, table := range RegisteredTables() {
		_, err := db.NewCreateTable().
			Model(table.Instance()).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			if is, kind := IsSQLError(err); is && kind == ExistTableErr {
				// Lost the creation race to another replica.
				continue
			}
			return &SchemaError{Table: table.Name(), Err: err}
		}
	}
	if sm.logger != nil {
		sm.logger.Debug("Schema bootstrap completed", "tables", len(RegisteredTables()))
	}
	return nil
}

// EnsureSchemaWithConstraints runs EnsureSchema and then applies foreign
// key constraints where the backend supports adding them after creation.
// Constraint application is best-effort: an already-existing constraint is
// logged and skipped, matching the idempotent bootstrap contract.
func (sm *SchemaManager) EnsureSchemaWithConstraints(ctx context.Context, db bun.IDB, backend Backend) error {
	if err := sm.EnsureSchema(ctx, db); err != nil {
		return err
	}
	// SQLite cannot ALTER TABLE ADD CONSTRAINT after creation; constraint
	// application is skipped there.
	if backend == SQLite {
		return nil
	}
	fkManager, err := NewConfigurableForeignKeyManager(sm.logger, sm.fkFile)
	if err != nil {
		return err
	}
	if errs := fkManager.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			if sm.logger != nil {
				sm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
			}
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return fkManager.AddAllForeignKeys(ctx, db)
}

// EnsureSchemaFor opens a connection for the descriptor, bootstraps the
// schema, and closes the connection on every exit path.
func (sm *SchemaManager) EnsureSchemaFor(ctx context.Context, cfg *ConnectionConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return sm.EnsureSchemaWithConstraints(ctx, db, cfg.Backend)
}
