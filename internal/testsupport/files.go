package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// mp4FtypBox is a minimal MP4 ftyp box so fixture clips look like real
// container files to anything sniffing magic bytes.
var mp4FtypBox = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

// WriteFile creates a clip-shaped fixture of exactly size bytes: an MP4 ftyp
// header followed by the file's own path as filler, so two fixtures of the
// same size never share a checksum. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	content := make([]byte, size)
	n := copy(content, mp4FtypBox)
	for n < len(content) {
		// Keep the distinguishing tail of the path when the filler gets
		// truncated; the leading t.TempDir() prefix is shared by every
		// fixture in a test.
		filler := path
		if remaining := len(content) - n; len(filler) > remaining {
			filler = filler[len(filler)-remaining:]
		}
		n += copy(content[n:], filler)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
