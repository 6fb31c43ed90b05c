// Package records executes the read-only queries behind the API.
//
// A Service is built on an explicitly constructed *sql.DB. Every query
// acquires a pooled connection for its own duration and releases it on
// every exit path. Summary fans its four queries out concurrently and
// fails as a whole if any one fails.
package records
