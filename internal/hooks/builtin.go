package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Hook delivers an event somewhere.
type Hook interface {
	Name() string
	Deliver(ctx context.Context, event *Event) error
}

// ScriptHook runs a shell command per event.
type ScriptHook struct {
	name    string
	command string
	shell   string
	dir     string
}

// NewScriptHook creates a hook that runs command with shell -c in dir.
func NewScriptHook(name, command, shell, dir string) *ScriptHook {
	if shell == "" {
		shell = "/bin/sh"
	}
	return &ScriptHook{name: name, command: command, shell: shell, dir: dir}
}

func (h *ScriptHook) Name() string { return h.name }

// Deliver runs the command with the event on stdin and in the environment.
func (h *ScriptHook) Deliver(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.shell, "-c", h.command)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), eventEnv(event)...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script failed: %w (output: %s)", err, strings.TrimSpace(output.String()))
	}
	return nil
}

func eventEnv(e *Event) []string {
	env := []string{
		"TASKGATE_EVENT=" + string(e.Type),
		"TASKGATE_RUN_ID=" + e.RunID,
		"TASKGATE_TASK=" + e.Task,
	}
	if e.State != "" {
		env = append(env, "TASKGATE_STATE="+e.State)
	}
	if e.Step != "" {
		env = append(env, "TASKGATE_STEP="+e.Step, "TASKGATE_COMMAND="+e.Command,
			"TASKGATE_EXIT_CODE="+strconv.Itoa(e.ExitCode))
	}
	if e.Error != "" {
		env = append(env, "TASKGATE_ERROR="+e.Error)
	}
	return env
}

// WebhookHook POSTs each event as JSON.
type WebhookHook struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookHook creates a hook that posts to url.
func NewWebhookHook(name, url string, headers map[string]string) *WebhookHook {
	return &WebhookHook{
		name:    name,
		url:     url,
		headers: headers,
		client:  &http.Client{},
	}
}

func (h *WebhookHook) Name() string { return h.name }

// Deliver posts the event and expects a 2xx response.
func (h *WebhookHook) Deliver(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "taskgate-hooks")
	for key, value := range h.headers {
		req.Header.Set(key, os.ExpandEnv(value))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
