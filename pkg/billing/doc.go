// Package billing consumes the external billing collaborator's order ledger
// to answer premium-status questions for the usage quota.
//
// The collaborator is advisory: any failure to read or parse the ledger is
// treated as "not premium", never as an error that blocks a request. The
// ledger file is parsed once and cached; an optional fsnotify watcher
// invalidates the cache when the file changes on disk.
package billing
