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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *ConnectionConfig {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.Backend = SQLite
	cfg.Path = filepath.Join(t.TempDir(), "validate.db")
	return cfg
}

func TestValidateSQLiteSuccess(t *testing.T) {
	result := Validate(context.Background(), sqliteConfig(t), 5*time.Second)
	require.True(t, result.OK)
	assert.Nil(t, result.Err)
	assert.Greater(t, result.Latency, time.Duration(0))
}

func TestValidateUnreachableHostBounded(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Backend = PostgreSQL
	// 192.0.2.0/24 is TEST-NET-1; nothing answers there.
	cfg.Host = "192.0.2.1"
	cfg.Port = 5432
	cfg.DBName = "d"
	cfg.Username = "u"
	cfg.Password = "p"

	start := time.Now()
	result := Validate(context.Background(), cfg, 2*time.Second)
	elapsed := time.Since(start)

	require.False(t, result.OK)
	require.NotNil(t, result.Err)
	assert.Contains(t, []ConnErrorKind{Timeout, NetworkUnreachable}, result.Err.Kind)
	assert.Less(t, elapsed, 2500*time.Millisecond, "validation must return within the timeout bound")
}

func TestValidateNeverPanicsOnRepeatedUse(t *testing.T) {
	cfg := sqliteConfig(t)
	for i := 0; i < 3; i++ {
		result := Validate(context.Background(), cfg, time.Second)
		require.True(t, result.OK)
	}
}
