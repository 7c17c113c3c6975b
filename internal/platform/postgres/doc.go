// Package postgres implements store.MemoStore on PostgreSQL through the pgx
// database/sql driver and embeds the goose migrations for its schema.
package postgres
