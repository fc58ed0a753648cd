package cli

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/pointable/pointable/dburl"
	"github.com/pointable/pointable/ddl"
)

// OpenDatabase opens a database from its URL and returns the handle along
// with the detected dialect.
func OpenDatabase(dbURL string) (*sql.DB, string, error) {
	if dbURL == "" {
		return nil, "", fmt.Errorf("no database URL configured (set DATABASE_URL or [database] url in pointable.ini)")
	}

	driver, dsn, err := dburl.DriverDSN(dbURL)
	if err != nil {
		return nil, "", err
	}
	dialect, err := dburl.Dialect(dbURL)
	if err != nil {
		return nil, "", err
	}

	// Migration batches hold several statements per Exec; pgx needs the
	// simple query protocol for that.
	if driver == "pgx" && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn, err = withQueryParam(dsn, "default_query_exec_mode", "simple_protocol")
		if err != nil {
			return nil, "", err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == ddl.Sqlite {
		// Foreign keys are off per connection; the cascade variants need
		// them. A single connection also keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, dialect, nil
}

func withQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
