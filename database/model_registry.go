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
	"sort"
	"sync"
)

var defaultRegistry = newTableRegistry()

// TableModel describes one table the collaborating application requires.
// Instance returns a struct pointer compatible with Bun; Priority controls
// foreign-key dependency order (parents carry lower values so they are
// created and exported before their children); PKColumns identifies rows in
// migration error reports.
type TableModel interface {
	Instance() interface{}
	Name() string
	PKColumns() []string
	Priority() int
}

// TableRegistry stores table models and exposes them in dependency order.
type TableRegistry interface {
	Register(model TableModel)
	Tables() []TableModel
}

type tableRegistry struct {
	tables []TableModel
	mutex  sync.RWMutex
}

func newTableRegistry() TableRegistry {
	return &tableRegistry{
		tables: make([]TableModel, 0),
	}
}

func (r *tableRegistry) Register(model TableModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.tables = append(r.tables, model)
}

func (r *tableRegistry) Tables() []TableModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]TableModel, len(r.tables))
	copy(result, r.tables)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type TableAdapter struct {
	instance interface{}
	name     string
	pks      []string
	priority int
}

// NewTableAdapter wraps a Bun model struct, its table name, primary key
// columns and dependency priority into a TableModel.
func NewTableAdapter(instance interface{}, name string, pks []string, priority int) TableModel {
	return &TableAdapter{
		instance: instance,
		name:     name,
		pks:      pks,
		priority: priority,
	}
}

func (a *TableAdapter) Instance() interface{} { return a.instance }

func (a *TableAdapter) Name() string { return a.name }

func (a *TableAdapter) PKColumns() []string { return a.pks }

// Priority returns the table's ordering value; lower values run earlier.
func (a *TableAdapter) Priority() int { return a.priority }

// RegisteredTables returns all tables in the default registry sorted by
// ascending dependency priority.
func RegisteredTables() []TableModel {
	return defaultRegistry.Tables()
}

// RegisterTable adds a table to the default registry.
func RegisterTable(model TableModel) {
	defaultRegistry.Register(model)
}

// RegisteredTableInstances returns the Bun model instances in dependency
// order, ready for CreateTable calls.
func RegisteredTableInstances() []interface{} {
	tables := RegisteredTables()
	instances := make([]interface{}, len(tables))
	for i, table := range tables {
		instances[i] = table.Instance()
	}
	return instances
}
