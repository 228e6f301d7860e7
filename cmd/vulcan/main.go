// Vulcan is a file and URL processing gateway.
//
// It fronts a set of document and media tools behind one HTTP surface,
// providing:
//   - Per-client free usage quotas with premium bypass via a billing ledger
//   - Immediate, polled, and fallback-chained tool execution
//   - Ephemeral artifact storage with TTL-based download links
//   - Prometheus metrics and structured logging
//
// Usage:
//
//	# Start the gateway with default configuration
//	vulcan run
//
//	# Start with custom configuration file
//	vulcan run --config /path/to/config.yaml
//
//	# Run one reclaim sweep and exit
//	vulcan reclaim
//
//	# List the registered tools
//	vulcan tools
//
//	# Show version information
//	vulcan version
package main

func main() {
	Execute()
}
