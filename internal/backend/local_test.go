package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/gateway"
	"github.com/logocruncher/logo-cruncher/internal/models"
	"github.com/logocruncher/logo-cruncher/internal/payload"
)

const samplePayload = `{
  "data": {
    "data": [
      {"id": 1, "note": "", "attachments": [{"id": 10, "url": "https://cdn/a.png"}, {"id": 11, "url": "https://cdn/b.png"}]},
      {"id": 2, "note": "https://t.me/app\nhttps://vk.com/club42", "attachments": []},
      {"id": 3, "note": "https://play.google.com/store/apps/details?id=x"},
      {"id": 4, "note": "no links here"}
    ],
    "total": 4
  }
}`

func decodeJobs(t *testing.T, resp *gateway.Response) []models.LogoJob {
	t.Helper()
	var out models.Jobs
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return out.Logos
}

func TestProcessJSON(t *testing.T) {
	local := NewLocal(Options{}, nil)

	resp, err := local.Invoke(context.Background(), constants.CommandProcessJSON, map[string]string{"json": samplePayload})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	got := decodeJobs(t, resp)
	want := []models.LogoJob{
		{ID: 1, URL: "https://cdn/a.png"},
		{ID: 2, URL: "https://vk.com/club42"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("job %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProcessJSONEmptyItems(t *testing.T) {
	local := NewLocal(Options{}, nil)
	resp, err := local.Invoke(context.Background(), constants.CommandProcessJSON,
		map[string]string{"json": `{"data":{"data":[],"total":0}}`})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if string(resp.Result) != `{"logos":[]}` {
		t.Errorf("Result = %s", resp.Result)
	}
}

func TestProcessJSONInvalidPayload(t *testing.T) {
	local := NewLocal(Options{}, nil)

	tests := []struct {
		name string
		json string
		is   error
	}{
		{"syntax", "{", payload.ErrSyntax},
		{"schema", `{"data":{}}`, payload.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := local.Invoke(context.Background(), constants.CommandProcessJSON, map[string]string{"json": tt.json})
			if !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestProcessJSONWritesBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "job.json")
	local := NewLocal(Options{BackupPath: backup}, nil)

	if _, err := local.Invoke(context.Background(), constants.CommandProcessJSON, map[string]string{"json": samplePayload}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	saved, err := config.LoadJobsBackup(backup)
	if err != nil {
		t.Fatalf("LoadJobsBackup() error = %v", err)
	}
	if len(saved) != 2 || saved[0].ID != 1 {
		t.Errorf("backup = %v", saved)
	}
}

func TestGreetEmitsCompletion(t *testing.T) {
	local := NewLocal(Options{}, nil)

	resp, err := local.Invoke(context.Background(), constants.CommandGreet, map[string]string{"name": "0) id:1 url:a"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	var greeting string
	if err := json.Unmarshal(resp.Result, &greeting); err != nil {
		t.Fatal(err)
	}
	if greeting != "Hello, 0) id:1 url:a!" {
		t.Errorf("greeting = %q", greeting)
	}
	if len(resp.Events) != 1 || resp.Events[0].Name != constants.EventGreetFinished || resp.Events[0].Payload != greeting {
		t.Errorf("events = %#v", resp.Events)
	}
}

func TestLogoList(t *testing.T) {
	local := NewLocal(Options{}, nil)
	resp, err := local.Invoke(context.Background(), constants.CommandLogoList, map[string]string{"msg": "/logos"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !strings.Contains(string(resp.Result), "/logos") {
		t.Errorf("Result = %s", resp.Result)
	}
}

func TestGetFileList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.txt", ".hidden.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	local := NewLocal(Options{FilesDir: dir}, nil)
	resp, err := local.Invoke(context.Background(), constants.CommandGetFileList, nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	var paths []string
	if err := json.Unmarshal(resp.Result, &paths); err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want a.png and b.txt", paths)
	}
	for _, p := range paths {
		if filepath.Dir(p) != dir {
			t.Errorf("path %q is not a full path under %q", p, dir)
		}
	}
}

func TestGetFileListMissingDirectory(t *testing.T) {
	local := NewLocal(Options{FilesDir: filepath.Join(t.TempDir(), "absent")}, nil)
	if _, err := local.Invoke(context.Background(), constants.CommandGetFileList, nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestInvokeArgumentErrors(t *testing.T) {
	local := NewLocal(Options{}, nil)

	tests := []struct {
		command string
		args    any
	}{
		{constants.CommandProcessJSON, nil},
		{constants.CommandProcessJSON, map[string]int{"json": 1}},
		{constants.CommandGreet, map[string]string{}},
		{constants.CommandLogoList, json.RawMessage(`{"dir":"/x"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			_, err := local.Invoke(context.Background(), tt.command, tt.args)
			if err == nil || !strings.Contains(err.Error(), "invalid arguments for "+tt.command) {
				t.Errorf("expected invalid arguments error, got %v", err)
			}
		})
	}
}

func TestInvokeUnknownCommand(t *testing.T) {
	_, err := NewLocal(Options{}, nil).Invoke(context.Background(), "vectorize", nil)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestInvokeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(Options{}, nil).Invoke(ctx, constants.CommandGreet, map[string]string{"name": "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Files.Directory = "/data"
	cfg.Jobs.BackupPath = "/tmp/job.json"

	if opts := OptionsFromConfig(&cfg); opts.BackupPath != "" || opts.FilesDir != "/data" {
		t.Errorf("backup disabled: %+v", opts)
	}

	cfg.Jobs.Backup = true
	if opts := OptionsFromConfig(&cfg); opts.BackupPath != "/tmp/job.json" {
		t.Errorf("backup enabled: %+v", opts)
	}
}

func TestServe(t *testing.T) {
	local := NewLocal(Options{}, nil)

	var out bytes.Buffer
	err := local.Serve(context.Background(), constants.CommandGreet, strings.NewReader(`{"name":"x"}`), &out)
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	env, err := gateway.DecodeEnvelope(&out)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if env.Error != "" || string(env.Result) != `"Hello, x!"` || len(env.Events) != 1 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestServeFailures(t *testing.T) {
	tests := []struct {
		name    string
		command string
		input   string
		want    string
	}{
		{"bad json input", constants.CommandGreet, "{", "not valid JSON"},
		{"empty input", constants.CommandGreet, "", `missing "name"`},
		{"payload syntax", constants.CommandProcessJSON, `{"json":"[1,"}`, "payload is not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := NewLocal(Options{}, nil).Serve(context.Background(), tt.command, strings.NewReader(tt.input), &out)
			if err == nil {
				t.Fatal("expected error")
			}

			env, decodeErr := gateway.DecodeEnvelope(&out)
			if decodeErr != nil {
				t.Fatalf("DecodeEnvelope() error = %v", decodeErr)
			}
			if env.Error != err.Error() {
				t.Errorf("envelope error %q != returned error %q", env.Error, err.Error())
			}
			if !strings.Contains(env.Error, tt.want) {
				t.Errorf("envelope error = %q, want substring %q", env.Error, tt.want)
			}
		})
	}
}
