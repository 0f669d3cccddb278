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

import "fmt"

// MigrationErrorKind classifies migration failures. Every kind aborts the
// whole operation; no partial application is left visible.
type MigrationErrorKind int

const (
	SchemaCreateFailed MigrationErrorKind = iota
	PartialImportFailure
	ManifestParseError
)

func (k MigrationErrorKind) String() string {
	switch k {
	case SchemaCreateFailed:
		return "schema_create_failed"
	case PartialImportFailure:
		return "partial_import_failure"
	case ManifestParseError:
		return "manifest_parse_error"
	default:
		return "migration_error"
	}
}

// MigrationError names the offending table and the failing row's
// identifying key where known.
type MigrationError struct {
	Kind   MigrationErrorKind
	Table  string
	RowKey string
	Err    error
}

func (e *MigrationError) Error() string {
	switch {
	case e.Table != "" && e.RowKey != "":
		return fmt.Sprintf("migration failed (%s): table %q row %s: %v", e.Kind, e.Table, e.RowKey, e.Err)
	case e.Table != "":
		return fmt.Sprintf("migration failed (%s): table %q: %v", e.Kind, e.Table, e.Err)
	default:
		return fmt.Sprintf("migration failed (%s): %v", e.Kind, e.Err)
	}
}

func (e *MigrationError) Unwrap() error { return e.Err }
