// Package artifact stores processing results for later download.
//
// Artifacts are ephemeral: each gets a 96-bit random identifier and a fixed
// time to live, after which the download surface reports it expired rather
// than missing. Blob contents live as files under the store directory;
// metadata lives in a SQLite database so lookups and reclaim sweeps never
// touch blob contents. A reclaim sweep deletes expired blobs and their
// metadata rows.
package artifact
