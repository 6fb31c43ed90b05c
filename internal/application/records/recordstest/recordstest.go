// Package recordstest provides a SQLite-backed certificate table for tests.
package recordstest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aescanero/certgate/internal/application/records"
)

const schema = `CREATE TABLE ` + records.Table + ` (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rm_name TEXT,
	mr_name TEXT,
	certificate_no TEXT,
	score REAL,
	date DATETIME
)`

// Record is one row inserted by Insert
type Record struct {
	RMName        string
	MRName        string
	CertificateNo string
	Score         float64
	Date          time.Time
}

// OpenDB creates the certificate table in a SQLite file under t.TempDir()
// and registers cleanup. The pool allows maxConns open connections.
func OpenDB(t testing.TB, maxConns int) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.sqlite")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	db.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create table: %v", err)
	}

	return db
}

// Insert adds records. Dates are stored in UTC.
func Insert(t testing.TB, db *sql.DB, recs ...Record) {
	t.Helper()

	for _, r := range recs {
		_, err := db.Exec(
			"INSERT INTO "+records.Table+" (rm_name, mr_name, certificate_no, score, date) VALUES (?, ?, ?, ?, ?)",
			r.RMName, r.MRName, r.CertificateNo, r.Score, r.Date.UTC(),
		)
		if err != nil {
			t.Fatalf("insert record: %v", err)
		}
	}
}

// FixedClock returns a clock that always reports now
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
