// Package mysql provides the MySQL connection pool and the mapping of
// driver errors onto client-visible error details.
package mysql
