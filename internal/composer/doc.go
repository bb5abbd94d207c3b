// Package composer orders matched sign clips and produces a single playable
// video artifact plus a manifest describing which words were signed and
// which were skipped.
package composer
