// Package store defines the persistence boundary for memos: the MemoStore
// interface every backend implements, the errors they share and a
// transaction helper for database/sql backends.
package store
