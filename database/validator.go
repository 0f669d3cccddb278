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
	"time"
)

// Validate performs a live, bounded-time connectivity check against the
// descriptor: open, one trivial round-trip query, close. The connection is
// released on every exit path. Validate never returns a Go error; every
// failure mode is classified inside the result for the caller to act on.
func Validate(ctx context.Context, cfg *ConnectionConfig, timeout time.Duration) *ValidationResult {
	start := time.Now()
	result := &ValidationResult{}

	fail := func(err error) *ValidationResult {
		result.Latency = time.Since(start)
		result.Err = ClassifyConnError(cfg.Backend, err)
		return result
	}

	db, err := Open(cfg)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = db.Close() }()

	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		return fail(err)
	}

	var one int
	if err := db.NewRaw("SELECT 1").Scan(ctxTimeout, &one); err != nil {
		return fail(err)
	}

	result.OK = true
	result.Latency = time.Since(start)
	return result
}
