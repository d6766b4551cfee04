package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

type cliTestEnv struct {
	baseDir    string
	dataDir    string
	backupDir  string
	logDir     string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		dataDir:    filepath.Join(base, "data"),
		backupDir:  filepath.Join(base, "backup"),
		logDir:     filepath.Join(base, "logs"),
		configPath: filepath.Join(base, "config.toml"),
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q
backup_dir = %q
log_dir = %q

[store]
pool_size = 2
acquire_timeout_seconds = 5

[ingest]
workers = 2
retry_attempts = 3
retry_backoff_ms = 1

[dedup]
source = "X"

[api]
bind = "127.0.0.1:0"

[logging]
format = "json"
level = "warn"
`, env.dataDir, env.backupDir, env.logDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var in io.Reader = strings.NewReader(stdin)
	cmd.SetIn(in)
	flags := []string{}
	if env != nil {
		flags = append(flags, "--config", env.configPath)
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

func insertLegacyRow(t *testing.T, path, name, director, source string) {
	t.Helper()
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	links := fmt.Sprintf(`{%q:"magnet:?legacy"}`, source)
	if _, err := db.Exec(`INSERT INTO media (name, director, source, download_link) VALUES (?, ?, ?, ?)`, name, director, source, links); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
}
