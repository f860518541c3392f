package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"musicreplacer/internal/overrides"
)

func TestTracksListAndExists(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tracks", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks list: %v", err)
	}
	for _, name := range []string{"Harmony", "Sea Shanty 2", "Scape Main"} {
		requireContains(t, out, name)
	}
	requireNotContains(t, out, "game tracks")

	out, _, err = runCLI(t, []string{"tracks", "list", "--filter", "shanty", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks list --json: %v", err)
	}
	var rows []trackRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v (%q)", err, out)
	}
	if len(rows) != 1 || rows[0].Name != "Sea Shanty 2" || rows[0].Overridden {
		t.Fatalf("unexpected filtered rows: %+v", rows)
	}

	out, _, err = runCLI(t, []string{"tracks", "exists", "Harmony"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks exists: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("expected yes, got %q", out)
	}
	out, _, _ = runCLI(t, []string{"tracks", "exists", "Autumn Voyage"}, env.configPath)
	if strings.TrimSpace(out) != "no" {
		t.Fatalf("expected no, got %q", out)
	}
}

func TestOverrideLifecycleFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.writeSource(t, "my harmony.wav")

	out, _, err := runCLI(t, []string{"override", "add", "Harmony", "--file", src}, env.configPath)
	if err != nil {
		t.Fatalf("override add: %v", err)
	}
	requireContains(t, out, "Override for Harmony created")
	if _, err := os.Stat(env.stagedPath("Harmony")); err != nil {
		t.Fatalf("expected staged file: %v", err)
	}

	out, _, err = runCLI(t, []string{"override", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("override list: %v", err)
	}
	requireContains(t, out, "Harmony")
	requireContains(t, out, "local")

	out, _, err = runCLI(t, []string{"override", "show", "Harmony", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("override show: %v", err)
	}
	var got overrides.TrackOverride
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode override: %v", err)
	}
	if got.Name != "Harmony" || !got.FromLocal || got.OriginalPath != src {
		t.Fatalf("unexpected override: %+v", got)
	}
	if got.AdditionalInfo[overrides.InfoFile] != filepath.Base(src) {
		t.Fatalf("expected File info %q, got %v", filepath.Base(src), got.AdditionalInfo)
	}

	out, _, err = runCLI(t, []string{"tracks", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks list: %v", err)
	}
	requireContains(t, out, `"overridden": true`)

	out, _, err = runCLI(t, []string{"override", "remove", "Harmony"}, env.configPath)
	if err != nil {
		t.Fatalf("override remove: %v", err)
	}
	requireContains(t, out, "removed")
	if _, err := os.Stat(env.stagedPath("Harmony")); !os.IsNotExist(err) {
		t.Fatalf("expected staged file removed, got %v", err)
	}

	out, _, err = runCLI(t, []string{"override", "remove", "Harmony"}, env.configPath)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	requireContains(t, out, "No override for Harmony")

	if _, _, err := runCLI(t, []string{"override", "show", "Harmony"}, env.configPath); err == nil {
		t.Fatal("expected show to fail without override")
	}
}

func TestOverrideAddRejectsBadRequests(t *testing.T) {
	env := setupCLITestEnv(t)
	wav := env.writeSource(t, "clip.wav")
	mp3 := env.writeSource(t, "clip.mp3")

	cases := [][]string{
		{"override", "add", "Harmony"},
		{"override", "add", "Harmony", "--file", wav, "--url", "https://youtu.be/x"},
		{"override", "add", "Autumn Voyage", "--file", wav},
		{"override", "add", "Harmony", "--file", mp3},
		{"override", "add", "Harmony", "--file", filepath.Join(env.sourceDir, "missing.wav")},
		{"override", "add", "Harmony", "--url", "not a url"},
		{"override", "add", "Harmony", "--search", "harmony", "--pick", "0"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
	if _, err := os.Stat(env.stagedPath("Harmony")); !os.IsNotExist(err) {
		t.Fatalf("rejected requests must not stage files, got %v", err)
	}
}

func TestOverrideBulkAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeSource(t, "Harmony.wav")
	env.writeSource(t, "Scape Main.v2.wav")
	env.writeSource(t, "Unknown Tune.wav")

	out, _, err := runCLI(t, []string{"override", "bulk", env.sourceDir}, env.configPath)
	if err != nil {
		t.Fatalf("override bulk: %v", err)
	}
	requireContains(t, out, "0 before, 2 after")

	if _, _, err := runCLI(t, []string{"override", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"override", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("override clear: %v", err)
	}
	requireContains(t, out, "Removed 2 override(s)")

	out, _, err = runCLI(t, []string{"override", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("override list: %v", err)
	}
	requireContains(t, out, "No overrides")
}

func TestDoctorReportsDependencies(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor", "--offline"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "read/write ok")
	requireNotContains(t, out, "Converter")
	requireContains(t, out, "[OK] Ready")
	requireContains(t, out, "3 tracks")
}

func TestDoctorFailsWhenExtractorMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	patched := strings.Replace(string(data), `binary = "sh"`, `binary = "definitely-not-yt-dlp"`, 1)
	if err := os.WriteFile(env.configPath, []byte(patched), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, []string{"doctor", "--offline"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Missing dependencies")
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:      "-",
		59.6:   "1:00",
		205:    "3:25",
		3725.0: "1:02:05",
	}
	for in, want := range cases {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.dataDir, "logs", "musicreplacer.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "second\nthird" {
		t.Fatalf("unexpected log tail: %q", out)
	}
}
