// Package daemon wires the stores, worker pool, sweep scheduler, and HTTP
// API into a single-instance background service.
package daemon
