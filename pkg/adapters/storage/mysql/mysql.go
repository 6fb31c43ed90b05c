package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// Config holds MySQL pool configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// MaxOpenConns bounds concurrent connections; callers beyond it wait
	MaxOpenConns   int
	ConnectTimeout time.Duration
	Location       *time.Location
}

// NewPool creates the connection pool. No connection is opened until the
// first query or CheckConnection.
func NewPool(cfg *Config) (*sql.DB, error) {
	connector, err := gomysql.NewConnector(driverConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	return db, nil
}

// CheckConnection acquires one connection from the pool and releases it
func CheckConnection(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

// DSN returns the data source name for cfg
func DSN(cfg *Config) string {
	return driverConfig(cfg).FormatDSN()
}

// driverConfig maps Config onto the driver's settings
func driverConfig(cfg *Config) *gomysql.Config {
	dc := gomysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Database
	dc.ParseTime = true
	dc.Timeout = cfg.ConnectTimeout

	if cfg.Location != nil {
		dc.Loc = cfg.Location
	}

	return dc
}
