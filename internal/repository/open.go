package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Supported DATABASE_DRIVER values.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open connects to the database named by driver and returns the matching repository
// together with a function that releases the connection.
func Open(ctx context.Context, driver, url string) (ScoredPaymentRepository, func(), error) {
	switch driver {
	case DriverMySQL:
		conn, err := openMySQL(ctx, url)
		if err != nil {
			return nil, nil, err
		}

		return NewMySQLScoredPaymentRepositoryImpl(conn), func() { _ = conn.Close() }, nil
	case DriverPostgres:
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return NewScoredPaymentRepositoryImpl(pool), pool.Close, nil
	case DriverMemory:
		return NewMemoryScoredPaymentRepositoryImpl(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}

	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	conn := sql.OpenDB(connector)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return conn, nil
}
