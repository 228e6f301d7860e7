// Package handlers implements the gateway's HTTP handlers: tool processing
// admission, artifact downloads, and health probes.
package handlers
