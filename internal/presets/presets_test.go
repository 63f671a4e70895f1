package presets_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventbatch/internal/logging"
	"eventbatch/internal/presets"
)

func TestCommandSubstitutesAndNormalizesTimecodes(t *testing.T) {
	got, err := presets.Command("{0}|{1}|{2}|{3}", presets.Params{
		Source:      "in.mov",
		Destination: "out.mov",
		Start:       "0,5",
		Duration:    "1,25",
	})
	if err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	if got != "in.mov|out.mov|0.5|1.25" {
		t.Fatalf("unexpected command: %q", got)
	}
}

func TestCommandLeavesPathsAndUnknownTagsAlone(t *testing.T) {
	got, err := presets.Command(`cp "{0}" "{1}" {9}`, presets.Params{Source: "a,b.mov", Destination: "c,d.mov"})
	if err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	if got != `cp "a,b.mov" "c,d.mov" {9}` {
		t.Fatalf("unexpected command: %q", got)
	}
}

func TestGenerateOneLinePerTuple(t *testing.T) {
	content, err := presets.Generate("{0} {2} {3} {1}", []presets.Params{
		{Source: "a.mov", Destination: "1.mov", Start: "00:00:01,000", Duration: "00:00:02,500"},
		{Source: "b.mov", Destination: "2.mov", Start: "00:00:03.000", Duration: "00:00:04.000"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := "a.mov 00:00:01.000 00:00:02.500 1.mov\nb.mov 00:00:03.000 00:00:04.000 2.mov\n"
	if content != want {
		t.Fatalf("unexpected content:\n%q\nwant\n%q", content, want)
	}
}

func TestRegistryBuiltinsAreOrdered(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	list := r.List()
	if len(list) != 5 {
		t.Fatalf("expected 5 built-in presets, got %d", len(list))
	}
	if list[0].Label != "All Files" {
		t.Fatalf("unexpected first preset %q", list[0].Label)
	}
	fourth, ok := r.At(4)
	if !ok || fourth.Label != presets.DefaultLabel {
		t.Fatalf("expected default preset at position 4, got %#v", fourth)
	}
	if _, ok := r.At(0); ok {
		t.Fatal("expected position 0 to miss")
	}
}

func TestMergeKeepsBuiltinOnDuplicateLabel(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	builtin, _ := r.Get("All Files")

	src := strings.Join([]string{
		"// custom presets",
		"",
		"  All Files  ",
		"echo overridden {0}",
		"# another comment",
		"Copy",
		`  cp "{0}" "{1}"  `,
		"Dangling label",
	}, "\r\n")

	added, err := r.Merge(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected one preset added, got %d", added)
	}
	got, _ := r.Get("All Files")
	if got.Template != builtin.Template {
		t.Fatalf("built-in template replaced: %q", got.Template)
	}
	copyPreset, ok := r.Get("Copy")
	if !ok || copyPreset.Template != `cp "{0}" "{1}"` {
		t.Fatalf("unexpected merged preset: %#v", copyPreset)
	}
	if _, ok := r.Get("Dangling label"); ok {
		t.Fatal("odd trailing line must be dropped")
	}
	last, _ := r.At(r.Len())
	if last.Label != "Copy" {
		t.Fatalf("merged preset should be appended, got %q last", last.Label)
	}
}

func TestMergeFirstOccurrenceWinsWithinSource(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	src := "X\necho first\nX\necho second\n"
	if _, err := r.Merge(strings.NewReader(src)); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	got, _ := r.Get("X")
	if got.Template != "echo first" {
		t.Fatalf("expected first occurrence, got %q", got.Template)
	}
}

func TestMergeSkipsMalformedTemplates(t *testing.T) {
	cases := map[string]string{
		"trailing unclosed":            "echo {0",
		"unclosed swallows later tags": `ffmpeg -i "{0" -ss {2 "{1}"`,
		"empty placeholder":            "echo {} {1}",
	}
	for name, template := range cases {
		t.Run(name, func(t *testing.T) {
			r := presets.NewRegistry(logging.NewNop())
			added, err := r.Merge(strings.NewReader("Broken\n" + template + "\n"))
			if err != nil {
				t.Fatalf("Merge returned error: %v", err)
			}
			if added != 0 {
				t.Fatalf("expected malformed preset to be skipped, added=%d", added)
			}
			if _, ok := r.Get("Broken"); ok {
				t.Fatal("malformed preset must not be selectable")
			}
		})
	}
}

func TestMergeAcceptsUnknownAndLiteralBraces(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	added, err := r.Merge(strings.NewReader("Extra\ncp \"{0}\" \"{1}\" {9}\nBrace\necho } {0}\n"))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected both presets added, added=%d", added)
	}
}

func TestResolveByLabelOrPosition(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	if p, err := r.Resolve(""); err != nil || p.Label != presets.DefaultLabel {
		t.Fatalf("expected default preset, got %#v err=%v", p, err)
	}
	if p, err := r.Resolve("2"); err != nil || !strings.Contains(p.Label, "36Mbps") {
		t.Fatalf("expected second preset, got %#v err=%v", p, err)
	}
	if _, err := r.Resolve("missing"); !errors.Is(err, presets.ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	added, err := r.LoadFile(filepath.Join(t.TempDir(), "PresetList.txt"))
	if err != nil || added != 0 {
		t.Fatalf("expected no-op for missing file, got added=%d err=%v", added, err)
	}
}

func TestWriteCommandFilePrependsBlankLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BatchEncodeEvents_[HQ].bat")
	if err := presets.WriteCommandFile(path, "echo 1\n"); err != nil {
		t.Fatalf("WriteCommandFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read command file: %v", err)
	}
	if string(data) != "\necho 1\n" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestMergeKeepsInlineCommentMarkers(t *testing.T) {
	r := presets.NewRegistry(logging.NewNop())
	input := "  # whole-line comment\nTagged\nffmpeg -i \"{0}\" -metadata comment=#take1 // keep \"{1}\"\n"
	added, err := r.Merge(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected one preset, added=%d", added)
	}
	p, ok := r.Get("Tagged")
	if !ok {
		t.Fatal("expected Tagged preset")
	}
	if want := "ffmpeg -i \"{0}\" -metadata comment=#take1 // keep \"{1}\""; p.Template != want {
		t.Fatalf("template = %q, want %q", p.Template, want)
	}
}
