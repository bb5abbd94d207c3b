// Package lifecycle drives generation jobs through their state machine.
// A pool of workers claims received jobs one at a time and runs the
// translate, resolve, and compose stages, writing every status change
// through the guarded jobs store so stale workers cannot clobber a
// cancelled or superseded job.
package lifecycle
