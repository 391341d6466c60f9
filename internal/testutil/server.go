// A NEW file to hold a shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/api"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/core"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
)

// TestConfig returns a configuration with the defaults tests rely on.
func TestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Port = 8080
	cfg.Database.Path = ":memory:"
	cfg.RealDebrid.APIURL = "http://127.0.0.1:1" // nothing listens here
	cfg.RealDebrid.TimeoutSeconds = 2
	cfg.Lease.LivenessWindowSeconds = 30
	cfg.Lease.SweepIntervalMinutes = 5
	cfg.LinkCache.TTLHours = 48
	cfg.LinkCache.SweepIntervalMinutes = 60
	cfg.Validation.StartupDelayMinutes = 1
	cfg.Validation.IntervalHours = 6
	return cfg
}

func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	return SetupTestAppWithUpstream(t, "http://127.0.0.1:1")
}

// SetupTestAppWithUpstream builds an app whose provider client talks to
// the given base URL, typically an httptest server standing in for the
// real API.
func SetupTestAppWithUpstream(t *testing.T, upstreamURL string) *core.App {
	t.Helper()
	conn := SetupTestDB(t)

	cfg := TestConfig()
	cfg.RealDebrid.APIURL = upstreamURL
	rdClient := rd.New(upstreamURL, time.Duration(cfg.RealDebrid.TimeoutSeconds)*time.Second)
	return core.NewApp(cfg, conn, rdClient, "test")
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)
	server := api.NewServer(app)
	return server, app.DB()
}

// SetupTestServerWithUpstream is SetupTestServer with the provider
// client pointed at a fake upstream.
func SetupTestServerWithUpstream(t *testing.T, upstreamURL string) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestAppWithUpstream(t, upstreamURL)
	server := api.NewServer(app)
	return server, app.DB()
}
