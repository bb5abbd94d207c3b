// Package status provides the read-only view of generation jobs served to
// clients. Jobs whose worker stopped heartbeating are reported as failed
// without mutating storage, so a poller never spins forever on a dead job.
package status
