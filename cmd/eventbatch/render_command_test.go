package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventbatch/internal/testsupport"
)

func seedProject(t *testing.T, env *cliTestEnv) {
	t.Helper()
	mustRunCLI(t, env, "project", "add-track", "V1")
	mustRunCLI(t, env, "project", "add-transition", "Cross Dissolve")
	mustRunCLI(t, env, "project", "add-event", "V1", env.mediaPath,
		"--start", "100f", "--length", "50f", "--offset", "25f", "--fade-in", "5f", "--transition", "Cross Dissolve")
}

func TestRenderEventsSplicesOutputTrack(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMarginFrames(10))
	seedProject(t, env)

	out := mustRunCLI(t, env, "render", "--json")
	var report reportView
	decodeJSON(t, out, &report)
	if report.Mode != "events" || report.Canceled {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %+v", report.Jobs)
	}
	job := report.Jobs[0]
	wantPath := filepath.Join(env.baseDir, "out", "Show_00001.mov")
	if job.Status != "complete" || job.Path != wantPath {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.MarginLeft != 10 || job.MarginRight != 10 {
		t.Fatalf("margins = %d/%d", job.MarginLeft, job.MarginRight)
	}
	if job.WindowStart != "00:00:03.600" || job.WindowLength != "00:00:02.800" {
		t.Fatalf("window = %s +%s", job.WindowStart, job.WindowLength)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "rendered-output" {
		t.Fatalf("output content = %q", data)
	}
	if job.SizeBytes != int64(len(data)) {
		t.Fatalf("size = %d", job.SizeBytes)
	}

	out = mustRunCLI(t, env, "project", "show", "--json")
	var view projectView
	decodeJSON(t, out, &view)
	if len(view.Tracks) != 2 {
		t.Fatalf("expected output track above the source, got %+v", view.Tracks)
	}
	target, source := view.Tracks[0], view.Tracks[1]
	if target.Name != "V1 [ ProRes ]" || !target.Mute || source.Name != "V1" {
		t.Fatalf("unexpected track order: %+v", view.Tracks)
	}
	if source.Mute {
		t.Fatal("source track mute state must be restored")
	}
	if len(source.Events) != 1 || source.Events[0].Start != "00:00:04.000" || source.Events[0].Length != "00:00:02.000" {
		t.Fatalf("source event not restored: %+v", source.Events)
	}
	if len(target.Events) != 1 {
		t.Fatalf("expected one spliced event, got %+v", target.Events)
	}
	spliced := target.Events[0]
	if spliced.Start != "00:00:04.000" || spliced.Length != "00:00:02.000" {
		t.Fatalf("spliced event at %s +%s", spliced.Start, spliced.Length)
	}
	if spliced.Media != wantPath || spliced.Offset != "00:00:00.400" || spliced.FadeIn != "00:00:00.200" {
		t.Fatalf("unexpected spliced event: %+v", spliced)
	}
}

func TestRenderRefusesExistingOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env)
	mustRunCLI(t, env, "render", "--json")

	_, _, err := runCLI(t, []string{"render", "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected second render to refuse the existing output")
	}
	requireContains(t, err.Error(), "Show_00001.mov")

	mustRunCLI(t, env, "render", "--json", "--overwrite")
}

func TestRenderTableReportsProgress(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env)

	out, stderr, err := runCLI(t, []string{"render"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, stderr)
	}
	requireContains(t, out, "Show_00001.mov")
	requireContains(t, out, "complete")
	requireContains(t, out, "Rendered 15 B")
	requireContains(t, stderr, "complete")
}

func TestRenderOfflineWritesCommandFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRenderMode("offline"))
	seedProject(t, env)

	out := mustRunCLI(t, env, "render", "--preset", "1", "--json")
	var report reportView
	decodeJSON(t, out, &report)
	if len(report.Jobs) != 1 || report.Jobs[0].Status != "deferred" {
		t.Fatalf("unexpected jobs: %+v", report.Jobs)
	}
	if len(report.CommandFiles) != 1 {
		t.Fatalf("expected one command file, got %v", report.CommandFiles)
	}
	wantFile := filepath.Join(env.baseDir, "out", "BatchEncodeEvents_[ProRes].bat")
	if report.CommandFiles[0] != wantFile {
		t.Fatalf("command file = %s", report.CommandFiles[0])
	}
	data, err := os.ReadFile(wantFile)
	if err != nil {
		t.Fatalf("read command file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, env.mediaPath+" | ") || !strings.Contains(line, "Show_00001.mov") {
		t.Fatalf("unexpected command line %q", line)
	}
	if _, err := os.Stat(filepath.Join(env.baseDir, "out", "Show_00001.mov")); !os.IsNotExist(err) {
		t.Fatalf("offline mode must not render, stat err=%v", err)
	}

	out = mustRunCLI(t, env, "project", "show", "--json")
	var view projectView
	decodeJSON(t, out, &view)
	if len(view.Tracks) != 2 || len(view.Tracks[0].Events) != 1 || !view.Tracks[0].Events[0].Offline {
		t.Fatalf("expected an offline placeholder, got %+v", view.Tracks)
	}
}

func TestPlanDoesNotTouchProject(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env)

	out := mustRunCLI(t, env, "plan", "--json", "--start-number", "007", "--margin", "5")
	var report reportView
	decodeJSON(t, out, &report)
	if len(report.Jobs) != 1 || report.Jobs[0].Status != "planned" {
		t.Fatalf("unexpected plan: %+v", report.Jobs)
	}
	if filepath.Base(report.Jobs[0].Path) != "Show_007.mov" {
		t.Fatalf("path = %s", report.Jobs[0].Path)
	}
	if report.Jobs[0].MarginLeft != 5 || report.Jobs[0].MarginRight != 5 {
		t.Fatalf("margins = %d/%d", report.Jobs[0].MarginLeft, report.Jobs[0].MarginRight)
	}

	out = mustRunCLI(t, env, "project", "show", "--json")
	var view projectView
	decodeJSON(t, out, &view)
	if len(view.Tracks) != 1 {
		t.Fatalf("plan must not add tracks: %+v", view.Tracks)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env)

	if _, _, err := runCLI(t, []string{"render", "--template", "DNxHR"}, env.configPath); err == nil {
		t.Fatal("expected unknown template to fail")
	}
}

func TestLogsFilterByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.Level = "info"
	writeTestConfig(t, env.configPath, env.cfg)
	seedProject(t, env)

	out := mustRunCLI(t, env, "render", "--json")
	var report reportView
	decodeJSON(t, out, &report)
	if report.RunID == "" {
		t.Fatal("expected a run id in the report")
	}

	out = mustRunCLI(t, env, "logs", "--run", report.RunID[:8], "--level", "info")
	requireContains(t, out, "[batch] batch run started")
	requireContains(t, out, "batch run finished")

	out = mustRunCLI(t, env, "logs", "--run", "no-such-run")
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no records for an unknown run, got %q", out)
	}
}
