// Package database manages the local SQLite connection used by the
// durable datastore implementation.
//
// It owns connection-string pragmas (WAL, busy timeout, foreign keys),
// directory and file permissions, and health checks. Schema is owned by
// the packages that store data, not here.
package database
