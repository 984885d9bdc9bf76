package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/smartledger/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect names the SQL backend selected from DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var ErrUnsupportedDatabaseURL = errors.New("unsupported database url")

// ParseDatabaseURL returns the dialect and driver DSN for url.
// postgres:// and postgresql:// URLs pass through; sqlite:path and file:path
// become a sqlite file DSN with foreign keys on and a busy timeout.
func ParseDatabaseURL(url string) (Dialect, string, error) {
	switch {
	case url == "":
		return "", "", errors.New("DATABASE_URL is not set")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "sqlite:"):
		return DialectSQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite:")), nil
	case strings.HasPrefix(url, "file:"):
		return DialectSQLite, sqliteDSN(url), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDatabaseURL, url)
}

func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "//")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=on"
}

// NewDBConnection opens the database named by cnf.Url. appEnv "development"
// turns on gorm's SQL logging.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, Dialect, error) {
	dialect, dsn, err := ParseDatabaseURL(cnf.Url)
	if err != nil {
		return nil, "", err
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	var dialector gorm.Dialector
	if dialect == DialectPostgres {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, "", err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, "", err
	}
	if dialect == DialectSQLite {
		// one writer; row locks are unavailable so serialise on the connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		maxOpen := cnf.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 25
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	}

	return connection, dialect, nil
}
