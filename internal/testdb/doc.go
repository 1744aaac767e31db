// Package testdb opens a migrated PostgreSQL database for integration tests.
// Tests are skipped unless PORTRAIT_TEST_DB_URL or DATABASE_URL is set. Each
// test runs in its own transaction, which is rolled back when it finishes.
package testdb
