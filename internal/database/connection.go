package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

const (
	postgresMaxOpenConns = 25
	// SQLite serializes writers, so extra connections only queue on the busy timeout
	sqliteMaxOpenConns = 4
	maxIdleConns       = 5
	connMaxLifetime    = 5 * time.Minute
)

// defaultRetryDelays is the wait before each reconnect; its length bounds the attempts
var defaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

// InitDatabase opens the configured database, retrying with backoff until it answers a ping
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	return initDatabase(cfg, defaultRetryDelays)
}

func initDatabase(cfg DatabaseConfig, retryDelays []time.Duration) (*gorm.DB, error) {
	driver := strings.ToLower(cfg.Driver)
	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	entry := log.WithFields(logrus.Fields{
		"driver": driver,
		"host":   cfg.Host,
		"name":   cfg.Name,
		"path":   cfg.Path,
	})
	entry.Info("Opening database")

	attempts := len(retryDelays)
	for attempt := 1; attempt <= attempts; attempt++ {
		var db *gorm.DB
		db, err = openAndPing(dialector)
		if err == nil {
			sqlDB, _ := db.DB()
			tunePool(sqlDB, driver)
			entry.WithField("attempt", attempt).Info("Database ready")
			return db, nil
		}

		entry.WithError(err).WithFields(logrus.Fields{
			"attempt":  attempt,
			"attempts": attempts,
		}).Warn("Database not reachable")
		if attempt < attempts {
			time.Sleep(retryDelays[attempt-1])
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

func dialectorFor(driver string, cfg DatabaseConfig) (gorm.Dialector, error) {
	switch driver {
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}
}

func openAndPing(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func tunePool(sqlDB *sql.DB, driver string) {
	maxOpen := postgresMaxOpenConns
	if driver == "sqlite" || driver == "" {
		maxOpen = sqliteMaxOpenConns
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	log.WithFields(logrus.Fields{
		"max_open": maxOpen,
		"max_idle": maxIdleConns,
		"lifetime": connMaxLifetime.String(),
	}).Debug("Connection pool tuned")
}
