package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Host:           "db.internal",
		Port:           3307,
		User:           "reporter",
		Password:       "s3cret",
		Database:       "osteo",
		MaxOpenConns:   10,
		ConnectTimeout: 5 * time.Second,
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(testConfig())

	assert.Contains(t, dsn, "reporter:s3cret@tcp(db.internal:3307)/osteo?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "timeout=5s")
	assert.NotContains(t, dsn, "loc=")
}

func TestDSN_Location(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Location = loc

	assert.Contains(t, DSN(cfg), "loc=Asia%2FKolkata")
}

func TestNewPool_Limits(t *testing.T) {
	db, err := NewPool(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.Equal(t, 10, db.Stats().MaxOpenConnections)
	assert.Equal(t, 0, db.Stats().OpenConnections)
}

func TestCheckConnection_Unreachable(t *testing.T) {
	// Nothing listens on a port we just released.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.ConnectTimeout = time.Second

	db, err := NewPool(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = CheckConnection(ctx, db)
	require.Error(t, err)
	assert.NotEqual(t, ErrorKindQuery, Classify(err))
}

func TestDescribe_ServerError(t *testing.T) {
	err := fmt.Errorf("select all: %w", &gomysql.MySQLError{
		Number:   1146,
		SQLState: [5]byte{'4', '2', 'S', '0', '2'},
		Message:  "Table 'osteo.leap_certificate_details' doesn't exist",
	})

	detail := Describe(err)

	assert.Equal(t, "Table 'osteo.leap_certificate_details' doesn't exist", detail.Message)
	assert.Equal(t, "ER_NO_SUCH_TABLE", detail.Code)
	assert.Equal(t, uint16(1146), detail.Errno)
	assert.Equal(t, "42S02", detail.SQLState)
	assert.Equal(t, detail.Message, detail.SQLMessage)
}

func TestDescribe_ServerErrorCodes(t *testing.T) {
	tests := []struct {
		errno uint16
		want  string
	}{
		{1045, "ER_ACCESS_DENIED_ERROR"},
		{1213, "ER_LOCK_DEADLOCK"},
		{1227, "ER_SPECIFIC_ACCESS_DENIED_ERROR"},
		{4999, "ER_4999"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			detail := Describe(&gomysql.MySQLError{
				Number:   tt.errno,
				SQLState: [5]byte{'4', '2', '0', '0', '0'},
				Message:  "denied",
			})
			assert.Equal(t, tt.want, detail.Code)
			assert.Equal(t, tt.errno, detail.Errno)
		})
	}
}

func TestClassify_ClosedPool(t *testing.T) {
	db, err := NewPool(testConfig())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = CheckConnection(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, ErrorKindConnectivity, Classify(err))
	assert.Equal(t, ErrorKindConnectivity, Classify(fmt.Errorf("query select_all: %w", err)))
}

func TestDescribe_NetworkError(t *testing.T) {
	err := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}

	detail := Describe(err)

	assert.Equal(t, err.Error(), detail.Message)
	assert.Equal(t, "ECONNREFUSED", detail.Code)
	assert.Zero(t, detail.Errno)
}

func TestDescribe_PlainError(t *testing.T) {
	detail := Describe(errors.New("boom"))
	assert.Equal(t, ErrorDetail{Message: "boom"}, detail)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "deadline", err: fmt.Errorf("q: %w", context.DeadlineExceeded), want: ErrorKindTimeout},
		{name: "canceled", err: context.Canceled, want: ErrorKindCanceled},
		{name: "syntax", err: &gomysql.MySQLError{Number: 1064, Message: "syntax"}, want: ErrorKindQuery},
		{name: "access denied", err: &gomysql.MySQLError{Number: 1045, Message: "denied"}, want: ErrorKindConnectivity},
		{name: "query timeout", err: &gomysql.MySQLError{Number: 3024, Message: "timeout"}, want: ErrorKindTimeout},
		{name: "bad conn", err: driver.ErrBadConn, want: ErrorKindConnectivity},
		{name: "invalid conn", err: gomysql.ErrInvalidConn, want: ErrorKindConnectivity},
		{name: "dial refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: ErrorKindConnectivity},
		{name: "net timeout", err: &net.OpError{Op: "read", Err: timeoutErr{}}, want: ErrorKindTimeout},
		{name: "other", err: errors.New("no such column"), want: ErrorKindQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRedact(t *testing.T) {
	r := Redact(driver.ErrBadConn, "req-1")
	assert.Equal(t, RedactedError{Kind: ErrorKindConnectivity, CorrelationID: "req-1"}, r)
}
