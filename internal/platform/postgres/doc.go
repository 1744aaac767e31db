// Package postgres persists background jobs and the generation ledger in
// PostgreSQL through the pgx driver. The schema is embedded and applied with
// goose at startup.
package postgres
