package container

import (
	"context"
	"fmt"

	"roidecode/adapters/db/postgres/migrations"
	"roidecode/adapters/nifti"
	"roidecode/adapters/postgres"
	"roidecode/app"
	"roidecode/internal"
	"roidecode/internal/config"
	"roidecode/internal/errors"
	"roidecode/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Volumes     ports.VolumeReader
	ResultsRepo ports.ResultsRepository
}

// New creates a container with file-based adapters; the results
// repository stays nil until a database is attached
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config:  cfg,
		Logger:  internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		Volumes: nifti.NewReader(),
	}, nil
}

// Connect opens the configured database and attaches it
func (c *Container) Connect(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase applies pending migrations and initializes the results
// repository on db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	if err := migrations.NewMigrator(db.DB, c.Logger).Up(ctx); err != nil {
		return errors.DatabaseError("failed to migrate results schema", err)
	}

	c.ResultsRepo = postgres.NewResultsRepository(db)
	c.Logger.Info("container initialized with database connection")
	return nil
}

// DecodingService returns the decoding service wired to the container's
// adapters
func (c *Container) DecodingService() *app.DecodingService {
	return app.NewDecodingService(c.Volumes, c.ResultsRepo, c.Logger)
}

// Shutdown closes the database connection, if any
func (c *Container) Shutdown() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
