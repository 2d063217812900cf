package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:       level,
		Format:      FormatJSON,
		Output:      &buf,
		ServiceName: "taskgate",
	})
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	records := decodeLines(t, buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(records), buf.String())
	}
	if records[0]["msg"] != "warn message" || records[1]["msg"] != "error message" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestServiceNameAttached(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	logger.Info("hello")

	records := decodeLines(t, buf)
	if records[0]["service"] != "taskgate" {
		t.Errorf("service = %v, want taskgate", records[0]["service"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})
	logger.Info("step finished", "exit_code", 0)

	out := buf.String()
	if !strings.Contains(out, "msg=\"step finished\"") || !strings.Contains(out, "exit_code=0") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:    "plain error",
			err:     errors.New("boom"),
			wantMsg: "boom",
		},
		{
			name:     "coded error",
			err:      tgerrors.NewCommandFailedError("false", 1),
			wantCode: "EXEC-002",
			wantMsg:  "command failed with exit status 1: false",
		},
		{
			name:     "wrapped coded error",
			err:      fmt.Errorf("task syncdb: %w", tgerrors.NewUserAbortError(nil)),
			wantCode: "GATE-001",
			wantMsg:  tgerrors.AbortMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelInfo)
			logger.WithError(tt.err).Info("step result")

			rec := decodeLines(t, buf)[0]
			if rec["error"] != tt.wantMsg {
				t.Errorf("error = %v, want %q", rec["error"], tt.wantMsg)
			}
			if tt.wantCode != "" && rec["error_code"] != tt.wantCode {
				t.Errorf("error_code = %v, want %q", rec["error_code"], tt.wantCode)
			}
		})
	}
}

func TestWithErrorNil(t *testing.T) {
	logger, _ := newBufferLogger(LevelInfo)
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	err := tgerrors.NewMissingArgumentError("startapp", "app")
	logger.LogError(context.Background(), "task rejected", err)
	logger.LogError(context.Background(), "ignored", nil)

	records := decodeLines(t, buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec["error_code"] != "TASK-001" {
		t.Errorf("error_code = %v, want TASK-001", rec["error_code"])
	}
	suggestions, ok := rec["suggestions"].([]any)
	if !ok || len(suggestions) == 0 {
		t.Errorf("expected suggestions, got %v", rec["suggestions"])
	}
}

func TestWithGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	logger.WithGroup("step").Info("ran", "index", 2)

	rec := decodeLines(t, buf)[0]
	group, ok := rec["step"].(map[string]any)
	if !ok || group["index"] != float64(2) {
		t.Errorf("expected grouped attribute, got %v", rec)
	}
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelWarn)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	if logger.Config().Output == nil {
		t.Error("Discard logger should have a writer")
	}
}

func TestStdLogger(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	logger.StdLogger(LevelWarn).Print("stdio transport closed")

	recs := decodeLines(t, buf)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["level"] != "WARN" || recs[0]["msg"] != "stdio transport closed" {
		t.Errorf("unexpected record %v", recs[0])
	}
}
