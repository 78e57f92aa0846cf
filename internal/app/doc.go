// Package app wires configuration, the durable store backend, telemetry
// sinks and the session manager into a runnable process.
package app
