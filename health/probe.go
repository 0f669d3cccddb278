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

package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomoncle/pokerdb/database"
)

// State is the orchestration-facing condition of one component.
type State string

const (
	StateOK       State = "ok"
	StateDegraded State = "degraded"
	StateFailing  State = "failing"
)

// Status is produced fresh on every probe call; it is never cached.
type Status struct {
	Component string        `json:"component"`
	State     State         `json:"state"`
	Latency   time.Duration `json:"latency"`
	Detail    string        `json:"detail"`
}

// Healthy reports whether the component passed its check.
func (s Status) Healthy() bool { return s.State == StateOK }

// DefaultAppURL is the collaborator's liveness endpoint probed by CheckApp.
const DefaultAppURL = "http://localhost:8000/"

// Probe answers liveness/readiness checks for the application endpoint and
// the already-resolved database descriptor. Calls never block beyond their
// configured timeout.
type Probe struct {
	appURL string
	cfg    *database.ConnectionConfig
	client *http.Client
	logger database.Logger
}

// NewProbe creates a probe. An empty appURL falls back to DefaultAppURL;
// cfg may be nil when only the app check is used.
func NewProbe(appURL string, cfg *database.ConnectionConfig, logger database.Logger) *Probe {
	if appURL == "" {
		appURL = DefaultAppURL
	}
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Probe{
		appURL: appURL,
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// CheckApp asks the application's HTTP liveness endpoint whether it is
// responding. A non-200 answer from a reachable endpoint is degraded;
// unreachable or timed out is failing.
func (p *Probe) CheckApp(ctx context.Context, timeout time.Duration) Status {
	start := time.Now()
	status := Status{Component: "app"}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxTimeout, http.MethodGet, p.appURL, nil)
	if err != nil {
		status.State = StateFailing
		status.Detail = fmt.Sprintf("invalid app URL: %v", err)
		status.Latency = time.Since(start)
		return status
	}

	resp, err := p.client.Do(req)
	status.Latency = time.Since(start)
	if err != nil {
		status.State = StateFailing
		status.Detail = "application is not responding"
		p.logger.Debug("App health check failed", "error", err.Error())
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		status.State = StateOK
		status.Detail = "application is responding"
	} else {
		status.State = StateDegraded
		status.Detail = fmt.Sprintf("application returned status %d", resp.StatusCode)
	}
	return status
}

// CheckDatabase validates connectivity against the resolved descriptor.
func (p *Probe) CheckDatabase(ctx context.Context, timeout time.Duration) Status {
	status := Status{Component: "db"}
	if p.cfg == nil {
		status.State = StateFailing
		status.Detail = "no database descriptor resolved"
		return status
	}

	result := database.Validate(ctx, p.cfg, timeout)
	status.Latency = result.Latency
	if result.OK {
		status.State = StateOK
		status.Detail = "database connection is working"
	} else {
		status.State = StateFailing
		status.Detail = fmt.Sprintf("database connection failed: %s", result.Err.Kind)
	}
	return status
}

// CheckFull runs both checks; healthy only when both report ok within
// their bounds.
func (p *Probe) CheckFull(ctx context.Context, timeout time.Duration) (app Status, db Status, healthy bool) {
	app = p.CheckApp(ctx, timeout)
	db = p.CheckDatabase(ctx, timeout)
	return app, db, app.Healthy() && db.Healthy()
}

// ExitCode maps a health outcome to the process exit code consumed by
// liveness/readiness probes: 0 healthy, 1 unhealthy.
func ExitCode(healthy bool) int {
	if healthy {
		return 0
	}
	return 1
}
