// This file contains shared test utilities for job context mocking.

package testutil

import (
	"database/sql"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/core"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/jobs"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
)

// MockJobContext implements jobs.JobContext for testing
type MockJobContext struct {
	App *core.App
}

func (m *MockJobContext) DB() *sql.DB                  { return m.App.DB() }
func (m *MockJobContext) Config() *config.Config       { return m.App.Config() }
func (m *MockJobContext) RD() *rd.Client               { return m.App.RD() }
func (m *MockJobContext) JobManager() *jobs.JobManager { return m.App.JobManager() }
