// Package pool watches the database connection pool.
//
// The pool itself is a *sql.DB: it caps open connections and queues
// callers beyond the cap without limit. HealthMonitor samples its
// statistics on an interval and warns when callers had to wait.
package pool
