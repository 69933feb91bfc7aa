package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mcsounds/internal/testsupport"
)

func TestManifestsListsCandidatesInPriorityOrder(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeInstall(t)
	testsupport.WriteBytes(t, filepath.Join(env.cfg.Paths.MinecraftDir, "assets", "indexes", "3.json"),
		[]byte(`{"objects":{"minecraft/sounds/old.ogg":{"hash":"cc33","size":10}}}`))
	testsupport.WriteBytes(t, filepath.Join(env.cfg.Paths.MinecraftDir, "assets", "indexes", "pre-release.json"),
		[]byte(`not json`))

	stdout, _, err := runCLI(t, []string{"manifests", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("manifests: %v", err)
	}
	var rows []manifestRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 candidates, got %#v", rows)
	}
	if rows[0].Name != "12.json" || !rows[0].Selected || rows[0].Sounds != 2 || rows[0].Bytes != 2560 {
		t.Fatalf("unexpected first row: %#v", rows[0])
	}
	if rows[1].Name != "3.json" || rows[1].Selected {
		t.Fatalf("unexpected second row: %#v", rows[1])
	}
	if rows[2].Error == "" {
		t.Fatalf("expected malformed index to report an error: %#v", rows[2])
	}

	table, _, err := runCLI(t, []string{"manifests"}, env.configPath)
	if err != nil {
		t.Fatalf("manifests table: %v", err)
	}
	requireContains(t, table, "12.json")
	requireContains(t, table, "2.6 kB")
}

func TestManifestsWithoutInstallFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"manifests"}, env.configPath); err == nil {
		t.Fatal("expected an error without asset indexes")
	}
}

func TestHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "No runs recorded")

	env.writeInstall(t)
	testsupport.WriteBytes(t, testsupport.ObjectPath(env.cfg.Paths.MinecraftDir, "dd44", ".ogg"), []byte("orphan"))
	if _, _, err := runCLI(t, []string{"extract", "--format", "flac"}, env.configPath); err != nil {
		t.Fatalf("extract: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []struct {
		ID        string         `json:"id"`
		Status    string         `json:"status"`
		Formats   []string       `json:"formats"`
		Converted map[string]int `json:"converted"`
	}
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "done" || runs[0].Converted["flac"] != 2 {
		t.Fatalf("unexpected runs: %#v", runs)
	}

	stdout, _, err = runCLI(t, []string{"history", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, stdout, runs[0].ID)
	requireContains(t, stdout, "Converted flac")

	if _, _, err := runCLI(t, []string{"history", "show", "ffffffff"}, env.configPath); err == nil {
		t.Fatal("expected unknown run id to fail")
	}
}

func TestStatusReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeInstall(t)

	stdout, _, err := runCLI(t, []string{"status", "--format", "mp3,flac,wav"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "[OK]")
	requireContains(t, stdout, "mp3, flac, wav")

	stdout, _, err = runCLI(t, []string{"status", "--json", "--source", filepath.Join(env.baseDir, "nowhere")}, env.configPath)
	if err == nil {
		t.Fatal("expected status to fail for a missing install")
	}
	requireContains(t, stdout, `"passed": false`)
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[transcode]")
	requireContains(t, out, env.cfg.Paths.OutputDir)
}

func TestLogsShowsJobLines(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeInstall(t)

	stdout, _, err := runCLI(t, []string{"extract", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var summary struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--job", summary.JobID, "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "extraction finished")
	requireContains(t, out, summary.JobID)
}
