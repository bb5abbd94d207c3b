// Package store owns the SQLite database backing jobs, artifacts, and the
// sign dictionary. Repository types in other packages wrap the handle it
// exposes; nothing else in the tree touches SQL connections directly.
package store
