package media

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"signcast/internal/testsupport"
)

func TestProbeDurationArgs(t *testing.T) {
	args := probeDurationArgs("/clips/hello.mp4")
	want := []string{"-v", "quiet", "-show_entries", "format=duration", "-of", "csv=p=0", "/clips/hello.mp4"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected probe args: %v", args)
	}
}

func TestConcatArgsUseProfile(t *testing.T) {
	args := concatArgs("/tmp/list.txt", "/tmp/out.mp4", Profile{Width: 1280, Height: 720, FrameRate: 30})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "scale=1280:720") {
		t.Fatalf("profile resolution missing from filter: %s", joined)
	}
	if !strings.Contains(joined, "fps=30") {
		t.Fatalf("frame rate missing from filter: %s", joined)
	}
	if !strings.Contains(joined, "-f concat -safe 0 -i /tmp/list.txt") {
		t.Fatalf("concat demuxer input missing: %s", joined)
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Fatalf("output path must be last: %v", args)
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")

	clips := []string{
		filepath.Join(dir, "plain.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}
	if err := writeConcatList(listPath, clips); err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}

	content, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if !strings.Contains(lines[1], `'\''`) {
		t.Fatalf("single quote not escaped: %s", lines[1])
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "file '") {
			t.Fatalf("bad list line: %s", line)
		}
	}
}

func TestConcatSingleClipCopies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	toolkit := NewToolkit(cfg)

	src := filepath.Join(cfg.Paths.TempDir, "only.mp4")
	testsupport.WriteFile(t, src, 128)
	dst := filepath.Join(cfg.Paths.TempDir, "out.mp4")

	if err := toolkit.Concat(context.Background(), []string{src}, dst); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() != 128 {
		t.Fatalf("copy incomplete: %d bytes", info.Size())
	}
}

func TestConcatRejectsEmptyInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	toolkit := NewToolkit(cfg)

	if err := toolkit.Concat(context.Background(), nil, filepath.Join(cfg.Paths.TempDir, "out.mp4")); err == nil {
		t.Fatal("expected error for empty clip list")
	}
}

func TestConcatMultipleClipsViaStub(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	toolkit := NewToolkit(cfg)

	first := filepath.Join(cfg.Paths.TempDir, "a.mp4")
	second := filepath.Join(cfg.Paths.TempDir, "b.mp4")
	testsupport.WriteFile(t, first, 16)
	testsupport.WriteFile(t, second, 16)
	dst := filepath.Join(cfg.Paths.TempDir, "out.mp4")

	if err := toolkit.Concat(context.Background(), []string{first, second}, dst); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	// The list file is cleaned up after the run.
	if _, err := os.Stat(strings.TrimSuffix(dst, ".mp4") + "_filelist.txt"); !os.IsNotExist(err) {
		t.Fatalf("concat list not removed, stat err=%v", err)
	}
}
