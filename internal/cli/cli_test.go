package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/gateway"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

const samplePayload = `{"data":{"data":[{"id":1,"note":"x","attachments":[{"id":10,"url":"http://a"},{"id":11,"url":"http://b"}]}],"total":1}}`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// runCLI executes the root command with args against a config file in a
// fresh temp dir and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvExecutor, "")
	t.Setenv(config.EnvFilesDir, "")
	t.Setenv(config.EnvDebug, "")

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	return runCLIWithConfig(t, cfgPath, stdin, args...)
}

func runCLIWithConfig(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	AddCommands(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	tests := []struct {
		path []string
	}{
		{[]string{"jobs", "preview"}},
		{[]string{"jobs", "submit"}},
		{[]string{"jobs", "from-dir"}},
		{[]string{"files", "list"}},
		{[]string{"files", "watch"}},
		{[]string{"greet"}},
		{[]string{"logo-list"}},
		{[]string{"run"}},
		{[]string{"backend"}},
		{[]string{"config", "init"}},
		{[]string{"config", "show"}},
		{[]string{"config", "path"}},
		{[]string{"version"}},
		{[]string{"completion", "bash"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.path, " "), func(t *testing.T) {
			cmd, _, err := root.Find(tt.path)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tt.path, err)
			}
			if cmd.Name() != tt.path[len(tt.path)-1] {
				t.Errorf("Find(%v) = %q", tt.path, cmd.Name())
			}
			if cmd.Short == "" {
				t.Error("Short description is empty")
			}
			if cmd.RunE == nil && cmd.Run == nil {
				t.Error("command has no run function")
			}
		})
	}

	for _, name := range []string{"config", "executor", "dir", "verbose", "debug"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestJobsPreview(t *testing.T) {
	out, err := runCLI(t, samplePayload, "jobs", "preview", "-")
	if err != nil {
		t.Fatalf("jobs preview error = %v", err)
	}
	for _, want := range []string{"http://a", "http://b", "2 job(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJobsPreview_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"syntax", `{"data":`, "JSON syntax error"},
		{"schema", `{"data":{"total":1}}`, "JSON structure error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.input, "jobs", "preview")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want prefix %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestJobsPreview_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	logos := []models.LogoJob{{ID: 7, URL: "https://vk.com/club7"}}
	if err := config.SaveJobsBackup(path, logos); err != nil {
		t.Fatalf("SaveJobsBackup() error = %v", err)
	}

	out, err := runCLI(t, "", "jobs", "preview", "--backup", path)
	if err != nil {
		t.Fatalf("jobs preview --backup error = %v", err)
	}
	if !strings.Contains(out, "https://vk.com/club7") || !strings.Contains(out, "1 job(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestJobsSubmit(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(payloadPath, []byte(samplePayload), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "jobs", "submit", payloadPath)
	if err != nil {
		t.Fatalf("jobs submit error = %v", err)
	}
	// The built-in backend keeps the first attachment of each item.
	if !strings.Contains(out, "http://a") || !strings.Contains(out, "1 job(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestJobsSubmit_InvalidPayload(t *testing.T) {
	_, err := runCLI(t, "not json", "jobs", "submit")
	if err == nil {
		t.Fatal("expected error for invalid payload")
	}
}

func TestJobsFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2.png", "1.jpg", "notes.txt", "abc.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	backupPath := filepath.Join(t.TempDir(), "job.json")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.Jobs.BackupPath = backupPath
	if err := config.Write(cfgPath, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	t.Setenv(config.EnvExecutor, "")
	t.Setenv(config.EnvFilesDir, "")
	out, err := runCLIWithConfig(t, cfgPath, "", "jobs", "from-dir", dir, "--save")
	if err != nil {
		t.Fatalf("jobs from-dir error = %v", err)
	}
	if !strings.Contains(out, "None url") || !strings.Contains(out, "2 job(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	saved, err := config.LoadJobsBackup(backupPath)
	if err != nil {
		t.Fatalf("LoadJobsBackup() error = %v", err)
	}
	if len(saved) != 2 || saved[0].ID != 1 || saved[1].ID != 2 {
		t.Errorf("saved jobs = %v", saved)
	}
}

func TestFilesList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"logo.png", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runCLI(t, "", "--dir", dir, "files", "list")
	if err != nil {
		t.Fatalf("files list error = %v", err)
	}
	for _, want := range []string{"logo.png", "readme.txt", "asset://localhost/", "2 file(s), 1 image(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "", "--dir", dir, "files", "list", "--images")
	if err != nil {
		t.Fatalf("files list --images error = %v", err)
	}
	if strings.Contains(out, "readme.txt") {
		t.Errorf("--images output lists a non-image:\n%s", out)
	}
}

func TestFilesList_MissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	if _, err := runCLI(t, "", "--dir", missing, "files", "list"); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestGreet(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(payloadPath, []byte(samplePayload), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "greet", "--payload", payloadPath)
	if err != nil {
		t.Fatalf("greet error = %v", err)
	}
	want := "Hello, 0) id:1 url:http://a!"
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
	if !strings.Contains(out, "event-greet-finished: "+want) {
		t.Errorf("completion event not printed:\n%s", out)
	}
}

func TestLogoList(t *testing.T) {
	out, err := runCLI(t, "", "logo-list", "/srv/logos")
	if err != nil {
		t.Fatalf("logo-list error = %v", err)
	}
	if strings.TrimSpace(out) != "Listing logo files in: /srv/logos" {
		t.Errorf("output = %q", out)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, samplePayload, "--dir", dir, "run")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{"Jobs:", "http://a", "Files:", "1.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_SubmitFailureStillListsFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, `{"data":`, "--dir", dir, "run")
	if err == nil {
		t.Fatal("expected submit error")
	}
	if !strings.Contains(out, "JSON syntax error") || !strings.Contains(out, "1.png") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestBackend(t *testing.T) {
	out, err := runCLI(t, `{"name":"Bob"}`, "backend", "greet")
	if err != nil {
		t.Fatalf("backend greet error = %v", err)
	}

	env, err := gateway.DecodeEnvelope(strings.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result != "Hello, Bob!" {
		t.Errorf("result = %q", result)
	}
	if len(env.Events) != 1 || env.Events[0].Name != "event-greet-finished" {
		t.Errorf("events = %+v", env.Events)
	}
}

func TestBackend_UnknownCommand(t *testing.T) {
	out, err := runCLI(t, "{}", "backend", "nope")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}

	env, decodeErr := gateway.DecodeEnvelope(strings.NewReader(out))
	if decodeErr != nil {
		t.Fatalf("DecodeEnvelope() error = %v", decodeErr)
	}
	if !strings.Contains(env.Error, "nope") {
		t.Errorf("envelope error = %q", env.Error)
	}
}

func TestConfigCommands(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv(config.EnvExecutor, "")
	t.Setenv(config.EnvFilesDir, "")

	out, err := runCLIWithConfig(t, cfgPath, "", "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Errorf("config path = %q, want %q", out, cfgPath)
	}

	if _, err := runCLIWithConfig(t, cfgPath, "", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, err = runCLIWithConfig(t, cfgPath, "", "config", "init")
	if err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("expected existing config notice, got:\n%s", out)
	}

	out, err = runCLIWithConfig(t, cfgPath, "", "--executor", "LOCAL", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"[executor]", "local", "[events]", "event-greet-finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShow_InvalidExecutor(t *testing.T) {
	if _, err := runCLI(t, "", "--executor", "carrier-pigeon", "config", "show"); err == nil {
		t.Fatal("expected error for unknown executor")
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output = %q", out)
	}
}
