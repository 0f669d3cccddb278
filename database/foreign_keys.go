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
	"os"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update"`
	ConstraintName  string `yaml:"constraint_name"`
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement to add the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.GenerateConstraintName(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)

	if fk.OnDelete != "" {
		sql += fmt.Sprintf(" ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		sql += fmt.Sprintf(" ON UPDATE %s", fk.OnUpdate)
	}
	return sql
}

var (
	registeredForeignKeys   []ForeignKeyConstraint
	registeredForeignKeysMu sync.RWMutex
)

// RegisterForeignKeys adds code-defined constraints, normally from the
// models package at init time.
func RegisterForeignKeys(fks ...ForeignKeyConstraint) {
	registeredForeignKeysMu.Lock()
	defer registeredForeignKeysMu.Unlock()
	registeredForeignKeys = append(registeredForeignKeys, fks...)
}

func getForeignKeyConstraints() []ForeignKeyConstraint {
	registeredForeignKeysMu.RLock()
	defer registeredForeignKeysMu.RUnlock()
	result := make([]ForeignKeyConstraint, len(registeredForeignKeys))
	copy(result, registeredForeignKeys)
	return result
}

// ForeignKeyManager manages adding and validating foreign key constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager with the registered constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{
		constraints: getForeignKeyConstraints(),
		logger:      logger,
	}
}

// AddAllForeignKeys applies every constraint. A constraint that already
// exists is skipped; other failures are logged and do not abort the rest,
// keeping bootstrap idempotent across replicas.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	for _, constraint := range fkm.constraints {
		if err := fkm.addForeignKey(ctx, db, constraint); err != nil {
			if fkm.logger != nil {
				fkm.logger.Debug("Skipping foreign key constraint", "constraint", constraint.GenerateConstraintName(), "error", err.Error())
			}
			continue
		}
		if fkm.logger != nil {
			fkm.logger.Debug("Added foreign key constraint", "constraint", constraint.GenerateConstraintName())
		}
	}
	return nil
}

func (fkm *ForeignKeyManager) addForeignKey(ctx context.Context, db bun.IDB, constraint ForeignKeyConstraint) error {
	_, err := db.ExecContext(ctx, constraint.GenerateSQL())
	return err
}

// GetConstraintsByTable returns the constraints defined for a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

// ListAllConstraints returns all configured constraints.
func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ValidateConstraints checks the configured constraints for common issues.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errors []error

	for _, constraint := range fkm.constraints {
		if constraint.Table == "" {
			errors = append(errors, fmt.Errorf("table name cannot be empty"))
		}
		if constraint.Column == "" {
			errors = append(errors, fmt.Errorf("column name cannot be empty: %s", constraint.Table))
		}
		if constraint.ReferenceTable == "" {
			errors = append(errors, fmt.Errorf("reference table name cannot be empty: %s.%s", constraint.Table, constraint.Column))
		}
		if constraint.ReferenceColumn == "" {
			errors = append(errors, fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", constraint.Table, constraint.Column, constraint.ReferenceTable))
		}

		if constraint.OnDelete != "" {
			validActions := []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}
			valid := false
			for _, action := range validActions {
				if strings.EqualFold(constraint.OnDelete, action) {
					valid = true
					break
				}
			}
			if !valid {
				errors = append(errors, fmt.Errorf("invalid delete policy: %s, constraint: %s", constraint.OnDelete, constraint.GenerateConstraintName()))
			}
		}
	}

	return errors
}

// ForeignKeyConfig is the YAML structure that lists foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

// ConfigurableForeignKeyManager loads foreign key constraints from a YAML
// configuration file and falls back to the registered defaults.
type ConfigurableForeignKeyManager struct {
	*ForeignKeyManager
	configPath string
}

// NewConfigurableForeignKeyManager creates a foreign key manager using the
// provided YAML configuration file path. An empty or unreadable path falls
// back to the registered constraints.
func NewConfigurableForeignKeyManager(logger Logger, configPath string) (*ConfigurableForeignKeyManager, error) {
	manager := &ConfigurableForeignKeyManager{
		configPath: configPath,
	}
	constraints, err := manager.loadFromConfig()
	if err != nil {
		if logger != nil && configPath != "" {
			logger.Debug("Failed to load foreign key constraints from config, using registered defaults", "error", err.Error(), "config_path", configPath)
		}
		constraints = getForeignKeyConstraints()
	}

	manager.ForeignKeyManager = &ForeignKeyManager{
		constraints: constraints,
		logger:      logger,
	}
	return manager, nil
}

func (cfm *ConfigurableForeignKeyManager) loadFromConfig() ([]ForeignKeyConstraint, error) {
	if cfm.configPath == "" {
		return nil, fmt.Errorf("no config file configured")
	}
	if _, err := os.Stat(cfm.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", cfm.configPath)
	}

	data, err := os.ReadFile(cfm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ForeignKeyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config.ForeignKeys, nil
}
