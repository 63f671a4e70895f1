package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"eventbatch/internal/config"
	"eventbatch/internal/testsupport"
)

const (
	stubFFmpeg = `if [ "$1" = "-version" ]; then echo "ffmpeg version 6.1-stub"; exit 0; fi
for arg; do out="$arg"; done
printf 'rendered-output' > "$out"`

	stubFFprobe = `if [ "$1" = "-version" ]; then echo "ffprobe version 6.1-stub"; exit 0; fi
printf '{"format":{"duration":"10.000000","size":"1024"},"streams":[{"index":0,"codec_type":"video","r_frame_rate":"25/1"}]}'`
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	mediaPath  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{
		testsupport.WithTemplates(config.Template{
			Renderer:  "ffmpeg",
			Name:      "ProRes",
			Extension: ".mov",
			Args:      []string{"-c:v", "prores_ks"},
		}),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.OutputBaseEnv, "")

	binDir := filepath.Join(base, "bin")
	testsupport.WriteExecutable(t, filepath.Join(binDir, "ffmpeg"), stubFFmpeg)
	testsupport.WriteExecutable(t, filepath.Join(binDir, "ffprobe"), stubFFprobe)
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	cfg.Logging.Level = "error"
	configPath := filepath.Join(base, "eventbatch.toml")
	writeTestConfig(t, configPath, cfg)

	mediaPath := filepath.Join(base, "media", "interview.mov")
	testsupport.WriteFile(t, mediaPath, 64)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, mediaPath: mediaPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRunCLI fails the test when the command returns an error.
func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, out, stderr)
	}
	return out
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("decode JSON: %v\n%s", err, data)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
