// Package artifacts manages the temporary-vs-permanent lifecycle of composed
// videos. Artifacts are addressed by opaque ids; callers never construct
// storage paths themselves.
package artifacts
