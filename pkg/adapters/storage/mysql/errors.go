package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	gomysql "github.com/go-sql-driver/mysql"
)

// ErrorKind is the coarse class of a database failure
type ErrorKind string

const (
	ErrorKindConnectivity ErrorKind = "connectivity"
	ErrorKindQuery        ErrorKind = "query"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindCanceled     ErrorKind = "canceled"
)

// ErrorDetail is the client-visible shape of a database error. Server errors
// carry the MySQL error number and state; everything else only a message.
type ErrorDetail struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Errno      uint16 `json:"errno,omitempty"`
	SQLState   string `json:"sqlState,omitempty"`
	SQLMessage string `json:"sqlMessage,omitempty"`
}

// RedactedError replaces ErrorDetail when raw errors must not leave the server
type RedactedError struct {
	Kind          ErrorKind `json:"kind"`
	CorrelationID string    `json:"correlation_id"`
}

// Server error numbers with a symbolic name in the response. Numbers not
// listed here are reported as ER_<errno>.
var serverErrorCodes = map[uint16]string{
	1005: "ER_CANT_CREATE_TABLE",
	1021: "ER_DISK_FULL",
	1037: "ER_OUTOFMEMORY",
	1040: "ER_CON_COUNT_ERROR",
	1043: "ER_HANDSHAKE_ERROR",
	1044: "ER_DBACCESS_DENIED_ERROR",
	1045: "ER_ACCESS_DENIED_ERROR",
	1046: "ER_NO_DB_ERROR",
	1049: "ER_BAD_DB_ERROR",
	1052: "ER_NON_UNIQ_ERROR",
	1053: "ER_SERVER_SHUTDOWN",
	1054: "ER_BAD_FIELD_ERROR",
	1064: "ER_PARSE_ERROR",
	1105: "ER_UNKNOWN_ERROR",
	1114: "ER_RECORD_FILE_FULL",
	1129: "ER_HOST_IS_BLOCKED",
	1130: "ER_HOST_NOT_PRIVILEGED",
	1142: "ER_TABLEACCESS_DENIED_ERROR",
	1143: "ER_COLUMNACCESS_DENIED_ERROR",
	1146: "ER_NO_SUCH_TABLE",
	1152: "ER_ABORTING_CONNECTION",
	1153: "ER_NET_PACKET_TOO_LARGE",
	1158: "ER_NET_READ_ERROR",
	1159: "ER_NET_READ_INTERRUPTED",
	1160: "ER_NET_ERROR_ON_WRITE",
	1161: "ER_NET_WRITE_INTERRUPTED",
	1203: "ER_TOO_MANY_USER_CONNECTIONS",
	1205: "ER_LOCK_WAIT_TIMEOUT",
	1213: "ER_LOCK_DEADLOCK",
	1226: "ER_USER_LIMIT_REACHED",
	1227: "ER_SPECIFIC_ACCESS_DENIED_ERROR",
	1251: "ER_NOT_SUPPORTED_AUTH_MODE",
	1267: "ER_CANT_AGGREGATE_2COLLATIONS",
	1292: "ER_TRUNCATED_WRONG_VALUE",
	1317: "ER_QUERY_INTERRUPTED",
	1356: "ER_VIEW_INVALID",
	1449: "ER_NO_SUCH_USER",
	1698: "ER_ACCESS_DENIED_NO_PASSWORD_ERROR",
	1820: "ER_MUST_CHANGE_PASSWORD",
	1862: "ER_MUST_CHANGE_PASSWORD_LOGIN",
	3024: "ER_QUERY_TIMEOUT",
	3159: "ER_SECURE_TRANSPORT_REQUIRED",
	4031: "ER_CLIENT_INTERACTION_TIMEOUT",
}

// serverErrorCode names a server error number
func serverErrorCode(n uint16) string {
	if code, ok := serverErrorCodes[n]; ok {
		return code
	}
	return fmt.Sprintf("ER_%d", n)
}

var connectivityErrnos = map[uint16]bool{
	1040: true, 1043: true, 1044: true, 1045: true, 1049: true, 1053: true,
	1129: true, 1130: true, 1152: true, 1203: true, 1226: true, 1251: true,
	1698: true, 1862: true, 3159: true, 4031: true,
}

// errDBClosed is the text of the unexported error database/sql returns
// once the pool has been closed. It has no exported sentinel.
const errDBClosed = "sql: database is closed"

var timeoutErrnos = map[uint16]bool{
	1205: true, 3024: true,
}

var syscallCodes = []struct {
	errno syscall.Errno
	code  string
}{
	{syscall.ECONNREFUSED, "ECONNREFUSED"},
	{syscall.ECONNRESET, "ECONNRESET"},
	{syscall.EHOSTUNREACH, "EHOSTUNREACH"},
	{syscall.ENETUNREACH, "ENETUNREACH"},
	{syscall.ETIMEDOUT, "ETIMEDOUT"},
	{syscall.EPIPE, "EPIPE"},
}

// Describe converts err into the detail object returned to API clients
func Describe(err error) ErrorDetail {
	if err == nil {
		return ErrorDetail{}
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return ErrorDetail{
			Message:    myErr.Message,
			Code:       serverErrorCode(myErr.Number),
			Errno:      myErr.Number,
			SQLState:   string(myErr.SQLState[:]),
			SQLMessage: myErr.Message,
		}
	}

	detail := ErrorDetail{Message: err.Error()}
	for _, sc := range syscallCodes {
		if errors.Is(err, sc.errno) {
			detail.Code = sc.code
			break
		}
	}
	return detail
}

// Classify maps err onto an ErrorKind
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch {
		case timeoutErrnos[myErr.Number]:
			return ErrorKindTimeout
		case connectivityErrnos[myErr.Number]:
			return ErrorKindConnectivity
		default:
			return ErrorKindQuery
		}
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, gomysql.ErrInvalidConn) ||
		isDBClosed(err) {
		return ErrorKindConnectivity
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindConnectivity
	}

	return ErrorKindQuery
}

// isDBClosed reports whether err, or any error it wraps, is the closed pool error
func isDBClosed(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if err.Error() == errDBClosed {
			return true
		}
	}
	return false
}

// Redact returns the classified replacement for err
func Redact(err error, correlationID string) RedactedError {
	return RedactedError{
		Kind:          Classify(err),
		CorrelationID: correlationID,
	}
}
