package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

// helperExecutor re-runs the test binary as a fake backend.
func helperExecutor() *ProcessExecutor {
	exec := NewProcessExecutor(os.Args[0], []string{"-test.run=TestHelperProcess", "--"}, nil)
	exec.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return exec
}

// TestHelperProcess is not a real test; it is the backend side of the
// process executor tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no command")
		os.Exit(2)
	}

	input, _ := io.ReadAll(os.Stdin)

	switch args[1] {
	case "echo":
		_ = json.NewEncoder(os.Stdout).Encode(Envelope{Result: json.RawMessage(input)})
	case "notify":
		_ = json.NewEncoder(os.Stdout).Encode(Envelope{
			Result: json.RawMessage(`"ok"`),
			Events: []Notification{{Name: "event-greet-finished", Payload: "done"}},
		})
	case "fail":
		_ = json.NewEncoder(os.Stdout).Encode(Envelope{Error: "invalid payload: boom"})
		os.Exit(1)
	case "crash":
		fmt.Fprintln(os.Stderr, "  fatal: backend crashed  ")
		os.Exit(3)
	case "garbage":
		fmt.Fprint(os.Stdout, "definitely not json")
	case "silent":
	case "sleep":
		time.Sleep(5 * time.Second)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q", args[1])
		os.Exit(2)
	}
	os.Exit(0)
}

func TestProcessExecutorEcho(t *testing.T) {
	exec := helperExecutor()

	resp, err := exec.Invoke(context.Background(), "echo", greetArgs{Name: "x"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	var echoed greetArgs
	if err := json.Unmarshal(resp.Result, &echoed); err != nil {
		t.Fatalf("unmarshal echoed args: %v", err)
	}
	if echoed.Name != "x" {
		t.Errorf("echoed args = %#v", echoed)
	}
}

func TestProcessExecutorNilArgs(t *testing.T) {
	resp, err := helperExecutor().Invoke(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if string(resp.Result) != "{}" {
		t.Errorf("Result = %s, want {}", resp.Result)
	}
}

func TestProcessExecutorEvents(t *testing.T) {
	resp, err := helperExecutor().Invoke(context.Background(), "notify", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Payload != "done" {
		t.Errorf("Events = %#v", resp.Events)
	}
}

func TestProcessExecutorErrors(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"fail", "invalid payload: boom"},
		{"crash", "fatal: backend crashed"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			_, err := helperExecutor().Invoke(context.Background(), tt.command, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestProcessExecutorBadEnvelope(t *testing.T) {
	_, err := helperExecutor().Invoke(context.Background(), "garbage", nil)
	if err == nil || !strings.Contains(err.Error(), "invalid response envelope") {
		t.Errorf("expected envelope error, got %v", err)
	}

	_, err = helperExecutor().Invoke(context.Background(), "silent", nil)
	if !errors.Is(err, ErrEmptyEnvelope) {
		t.Errorf("expected ErrEmptyEnvelope, got %v", err)
	}
}

func TestProcessExecutorCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := helperExecutor().Invoke(ctx, "sleep", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("process was not killed on cancellation")
	}
}

func TestProcessExecutorNoProgram(t *testing.T) {
	_, err := NewProcessExecutor("", nil, nil).Invoke(context.Background(), "echo", nil)
	if err == nil {
		t.Error("expected error for missing program")
	}
}

func TestProcessExecutorThroughGateway(t *testing.T) {
	gw := newTestGateway(t, helperExecutor())

	_, err := gw.SubmitPayload(context.Background(), "{}")
	// The helper does not know process_json.
	if err == nil || !strings.Contains(err.Error(), `unknown command "process_json"`) {
		t.Errorf("expected stderr message surfaced, got %v", err)
	}
}
