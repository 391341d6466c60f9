package core

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/assets"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/db"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/jobs"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config     *config.Config
	db         *sql.DB
	rdClient   *rd.Client
	jobManager *jobs.JobManager
	version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New(version string) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	rdClient := rd.New(cfg.RealDebrid.APIURL, time.Duration(cfg.RealDebrid.TimeoutSeconds)*time.Second)

	app := NewApp(cfg, database, rdClient, version)
	log.Println("Core application setup complete.")
	return app, nil
}

// NewApp assembles an App from already initialized components. Tests
// use it directly to inject an in-memory database and a fake provider.
func NewApp(cfg *config.Config, database *sql.DB, rdClient *rd.Client, version string) *App {
	app := &App{
		config:   cfg,
		db:       database,
		rdClient: rdClient,
		version:  version,
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)
	return app
}

// Config returns the loaded application configuration.
func (a *App) Config() *config.Config { return a.config }

// DB returns the database connection.
func (a *App) DB() *sql.DB { return a.db }

// RD returns the debrid provider client.
func (a *App) RD() *rd.Client { return a.rdClient }

// JobManager returns the background job manager.
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }

// Version returns the build version string.
func (a *App) Version() string { return a.version }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
