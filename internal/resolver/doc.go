// Package resolver turns free announcement text into an ordered list of
// resolved tokens against a dictionary snapshot. Resolution is pure: the
// same text and snapshot always produce the same sequence.
package resolver
