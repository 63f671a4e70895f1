package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary \"ffmpeg\" not found", false)
	want := fmt.Sprintf("  %-*s %s", statusLabelWidth, "FFmpeg:", `[ERROR] binary "ffmpeg" not found`)
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestIsTerminalNonFile(t *testing.T) {
	if isTerminal(io.Discard) {
		t.Fatal("expected non-file writer to be treated as non-terminal")
	}
}

func TestCheckCommandReportsTemplates(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "check")
	requireContains(t, out, "Environment")
	requireContains(t, out, "[OK] ffmpeg version 6.1-stub")
	requireContains(t, out, "ffmpeg/ProRes")
}

func TestPresetsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "presets", "list")
	requireContains(t, out, "FFmpeg: ProRes [112Mbps 10-bit, Audio Copy]")

	out = mustRunCLI(t, env, "presets", "show", "1")
	requireContains(t, out, "Label:    All Files")
	requireContains(t, out, "Example:  source.mov | Show_00001.mov | 00:00:01.000 | 00:00:04.000")
}
