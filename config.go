package authkit

import (
	"context"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/fernandezvara/dbkit"
)

// Config holds the settings needed to connect the authorization service to
// its database. Values come from the environment via ConfigFromEnv or can be
// filled directly.
type Config struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `env:"AUTHKIT_DATABASE_URL"`

	// Connection pool settings.
	MaxOpenConns    int           `env:"AUTHKIT_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"AUTHKIT_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"AUTHKIT_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"AUTHKIT_CONN_MAX_IDLE_TIME" envDefault:"5m"`

	// RunMigrations applies pending schema migrations on Open.
	RunMigrations bool `env:"AUTHKIT_RUN_MIGRATIONS" envDefault:"false"`
}

// ConfigFromEnv reads the configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, NewError(ErrValidation, "invalid environment configuration").
			WithOp("ConfigFromEnv").WithCause(err)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, NewError(ErrValidation, "AUTHKIT_DATABASE_URL is required").
			WithOp("ConfigFromEnv")
	}
	return cfg, nil
}

// Open connects to the database, applies the pool settings, optionally runs
// migrations, and returns a ready Service. The caller owns the returned
// handle and should Close it on shutdown.
//
// Example:
//
//	cfg, err := authkit.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	service, db, err := authkit.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
func Open(ctx context.Context, cfg Config, opts ...Option) (*Service, *dbkit.DBKit, error) {
	db, err := dbkit.New(dbkit.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, NewError(ErrStorage, "database connection failed").
			WithOp("Open").WithCause(err)
	}

	if bunDB := db.Bun(); bunDB != nil {
		bunDB.SetMaxOpenConns(cfg.MaxOpenConns)
		bunDB.SetMaxIdleConns(cfg.MaxIdleConns)
		bunDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		bunDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	service := NewService(db, opts...)

	if cfg.RunMigrations {
		if _, err := NewMigrationService(service).RunMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return service, db, nil
}
