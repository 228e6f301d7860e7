// Package storage defines the persistence interface for usage records and
// provides file, memory, SQLite, and Redis backed implementations.
//
// The file backend is the default: it keeps the whole ledger in a single JSON
// document and replaces it atomically with a temp-file rename on every
// mutation. The memory backend serves tests and throwaway deployments, the
// SQLite backend adds durable single-instance storage, and the Redis backend
// supports multi-process deployments where several gateway instances share
// one ledger.
package storage
