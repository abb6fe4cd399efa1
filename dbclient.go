package lambda

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DB defines the database handle used by the invocation.
type DB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Connector opens the database connection described by the secret.
type Connector interface {
	Open(ctx context.Context, d ConnectionDescriptor) (DB, error)
}

// NewMySQLConnector initiates the `Connector` to MySQL.
func NewMySQLConnector(timeout time.Duration) Connector {
	return &mysqlConnector{timeout: timeout, open: sql.Open}
}

type mysqlConnector struct {
	timeout time.Duration
	open    func(driverName, dataSourceName string) (*sql.DB, error)
}

func (c mysqlConnector) Open(ctx context.Context, d ConnectionDescriptor) (DB, error) {
	db, err := c.open("mysql", dsn(d, c.timeout))
	if err != nil {
		return nil, wrapError(ConnectionError, fmt.Errorf("cannot open connection: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapError(ConnectionError, fmt.Errorf("cannot connect to %s: %w", d.Host, err))
	}
	return db, nil
}

func dsn(d ConnectionDescriptor, timeout time.Duration) string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(int(port)))
	cfg.DBName = d.DatabaseName
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if timeout > 0 {
		cfg.Timeout = timeout
		cfg.ReadTimeout = timeout
		cfg.WriteTimeout = timeout
	}
	return cfg.FormatDSN()
}

const (
	queryVersion = "SELECT VERSION() AS version"
	queryHealth  = "SELECT 1 AS health"
)

// ServerVersion runs the diagnostic query and returns the database server version.
func ServerVersion(ctx context.Context, db DB) (string, error) {
	var v string
	if err := db.QueryRowContext(ctx, queryVersion).Scan(&v); err != nil {
		return "", wrapError(QueryError, fmt.Errorf("cannot query server version: %w", err))
	}
	return v, nil
}

// Ping runs the health query.
func Ping(ctx context.Context, db DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, queryHealth).Scan(&v); err != nil {
		return 0, wrapError(QueryError, fmt.Errorf("health query failed: %w", err))
	}
	return v, nil
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ListRows reads up to limit rows of the table.
func ListRows(ctx context.Context, db DB, table string, limit int) ([]map[string]any, error) {
	if !tableName.MatchString(table) {
		return nil, newError(QueryError, "invalid table name "+strconv.Quote(table))
	}
	if limit <= 0 {
		return nil, newError(QueryError, "limit must be positive")
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM `"+table+"` LIMIT "+strconv.Itoa(limit))
	if err != nil {
		return nil, wrapError(QueryError, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapError(QueryError, err)
	}

	o := make([]map[string]any, 0, limit)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapError(QueryError, err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		o = append(o, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(QueryError, err)
	}
	return o, nil
}
