// Package main hosts the vitrine CLI entrypoint and command graph.
//
// Commands talk to a running daemon over its HTTP API when one answers on the
// configured api_bind, and open the configured task store directly otherwise
// (or always, with --local). The daemon itself runs under `vitrine daemon`.
//
// Keep this package lean: lifecycle rules live in internal/lifecycle and the
// board and worklist projections in internal/reconcile. Commands here parse
// arguments and render results.
package main
