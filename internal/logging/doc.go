// Package logging centralizes slog helpers for signcast: attribute
// constructors, standardized field keys, context-derived fields, and
// handler construction for the daemon and CLI.
package logging
