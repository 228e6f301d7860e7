// Package capability defines the processing capability abstraction and the
// executor that runs capabilities under the three dispatch strategies.
//
// A capability transforms an input (uploaded files or a source URL plus
// options) into an outcome. Immediate capabilities finish within the request;
// polled capabilities start a remote job and are driven to completion by the
// executor's bounded poll loop; fallback capabilities chain alternatives and
// take the first success.
//
// Every execution path, including panics, timeouts, and context cancellation,
// is normalized into the Outcome union so callers make exactly one decision:
// did the work produce a result or not.
package capability
