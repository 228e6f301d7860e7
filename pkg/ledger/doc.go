// Package ledger enforces the per-client usage quota.
//
// Every client identity gets a fixed number of free operations; clients with
// an approved billing order bypass the quota entirely. Quota reads are
// permissive: if the backing store cannot be read the client is allowed
// through, because losing a conversion over a ledger hiccup is worse than
// giving away a free one. Charges are strict: an increment that cannot be
// persisted is reported as an error so callers never silently give away
// quota accounting.
package ledger
