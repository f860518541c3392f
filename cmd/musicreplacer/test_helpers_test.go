package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	dataDir    string
	configPath string
	sourceDir  string
}

func setupCLITestEnv(t *testing.T, tracks ...string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MUSICREPLACER_CONVERTER_ENDPOINT", "")
	t.Setenv("MUSICREPLACER_TRACK_LIST", "")
	t.Setenv("MUSICREPLACER_API_TOKEN", "")

	env := &cliTestEnv{
		baseDir:    base,
		dataDir:    filepath.Join(base, "data"),
		configPath: filepath.Join(base, "config.toml"),
		sourceDir:  filepath.Join(base, "source"),
	}
	if err := os.MkdirAll(env.sourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	trackList := filepath.Join(base, "tracks.txt")
	if len(tracks) == 0 {
		tracks = []string{"Harmony", "Sea Shanty 2", "Scape Main"}
	}
	if err := os.WriteFile(trackList, []byte("# game tracks\n"+strings.Join(tracks, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write track list: %v", err)
	}

	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\ntrack_list = %q\n\n[extractor]\nbinary = %q\n\n[api]\ntoken = %q\n\n[logging]\nlevel = %q\n",
		env.dataDir, trackList, "sh", "s3cret", "error",
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.sourceDir, name)
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write source %s: %v", name, err)
	}
	return path
}

func (e *cliTestEnv) stagedPath(track string) string {
	return filepath.Join(e.dataDir, "music-replacer", track+".wav")
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

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
