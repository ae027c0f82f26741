package database

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectConfig holds the connection settings for the relational store.
type ConnectConfig struct {
	Driver          string
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationFolder string
}

// Connect establishes the pooled connection, applies pending migrations and
// returns the shared DB handle. A failure here is fatal to startup.
func Connect(cfg ConnectConfig, logger ectologger.Logger) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.UserName, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	sqlxDB, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		logger.WithError(err).Errorf("Failed to connect to database %s", cfg.Name)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.MigrationFolder != "" {
		driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create migration driver: %w", err)
		}

		ms := NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: cfg.MigrationFolder})
		if err := ms.Migrate(cfg.Name, driver); err != nil {
			return nil, err
		}
	}

	logger.Infof("Connected to database %s", cfg.Name)
	return NewDatabaseInstance(sqlxDB, logger), nil
}
