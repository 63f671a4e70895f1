package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventbatch/internal/timeline"
)

func TestFixFileName(t *testing.T) {
	got := FixFileName("Ep:01 <final>?\t*v2|x/y\\z\"")
	want := "Ep-01 -final----v2-x-y-z-"
	if got != want {
		t.Fatalf("FixFileName = %q, want %q", got, want)
	}
	// Decomposed input is normalized before replacement.
	if got := FixFileName("Cafe\u0301"); got != "Caf\u00e9" {
		t.Fatalf("expected NFC output, got %q", got)
	}
}

func TestValidateFilePath(t *testing.T) {
	if err := ValidateFilePath("/renders/Show_00001.mov"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"/renders/a|b.mov", "/renders/a<b.mov", "/renders/a\x01.mov", "/" + strings.Repeat("a", MaxPathLength)} {
		err := ValidateFilePath(bad)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateFilePath(%q) = %v, want validation error", bad, err)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	item := timeline.NewRenderItem("ffmpeg", "ProRes: HQ", "*.mov")
	base := filepath.Join("renders", "Show:1_")

	if got, want := eventOutputPath(base, "00007", item), filepath.Join("renders", "Show-1_00007.mov"); got != want {
		t.Fatalf("eventOutputPath = %q, want %q", got, want)
	}
	if got, want := itemOutputStem(base, item), filepath.Join("renders", "Show-1_ffmpeg_ProRes- HQ"); got != want {
		t.Fatalf("itemOutputStem = %q, want %q", got, want)
	}

	dirOnly := "renders" + string(filepath.Separator)
	if got, want := eventOutputPath(dirOnly, "00001", item), filepath.Join("renders", "00001.mov"); got != want {
		t.Fatalf("eventOutputPath(dir) = %q, want %q", got, want)
	}
}

func TestCommandFileName(t *testing.T) {
	item := timeline.NewRenderItem("ffmpeg", "ProRes HQ", ".mov")
	if got := CommandFileName("", item); got != "BatchEncodeEvents_[ProRes HQ].bat" {
		t.Fatalf("default command file = %q", got)
	}
	if got := CommandFileName("/tmp/encode.sh", timeline.NewRenderItem("ffmpeg", "a/b", ".mov")); got != "encode_[a-b].sh" {
		t.Fatalf("custom command file = %q", got)
	}
	if got := TargetTrackName("V1", item); got != "V1 [ ProRes HQ ]" {
		t.Fatalf("TargetTrackName = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mov")
	if fileExists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fileExists(path) {
		t.Fatal("existing file not detected")
	}
}
