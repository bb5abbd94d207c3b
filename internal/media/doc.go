// Package media wraps the ffmpeg toolchain used for clip inspection and
// composition. It knows nothing about jobs or dictionaries; it moves bytes.
package media
