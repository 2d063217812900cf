package ux

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

func plainErrorStyles() ErrorStyles {
	return ErrorStyles{Message: lipgloss.NewStyle(), Suggestion: lipgloss.NewStyle()}
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantSuggestion string
	}{
		{"nil error", nil, ""},
		{"permission denied", errors.New("open taskgate.yaml: permission denied"), "Check file permissions"},
		{"unknown flag", errors.New("unknown flag: --foo"), "taskgate --help"},
		{"unknown command", errors.New(`unknown command "deploy" for "taskgate"`), "taskgate list"},
		{"unrecognized error", errors.New("something else"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("EnhanceError(nil) = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("EnhanceError() must wrap the original error")
			}
			if tt.wantSuggestion == "" {
				if got.Error() != tt.err.Error() {
					t.Errorf("EnhanceError() changed an unrecognized error: %q", got.Error())
				}
				return
			}
			if !strings.Contains(got.Error(), tt.wantSuggestion) {
				t.Errorf("EnhanceError() = %q, want suggestion containing %q", got.Error(), tt.wantSuggestion)
			}
		})
	}
}

func TestEnhanceErrorKeepsCodedErrors(t *testing.T) {
	err := tgerrors.NewUserAbortError(errors.New("permission denied"))
	if got := EnhanceError(err); got != error(err) {
		t.Errorf("coded errors should be returned unchanged, got %v", got)
	}
}

func TestRenderError(t *testing.T) {
	err := fmt.Errorf("task south_init: %w", tgerrors.NewMissingArgumentError("south_init", "app"))

	out := RenderError(err, plainErrorStyles())
	lines := strings.Split(out, "\n")

	if !strings.HasPrefix(lines[0], "Error: task south_init: [TASK-001]") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(out, "  • Pass it positionally or as app=<value>") {
		t.Errorf("suggestion missing from %q", out)
	}
	if strings.Contains(out, "Suggestions:") {
		t.Errorf("suggestions header should be replaced, got %q", out)
	}
}

func TestRenderErrorWithoutSuggestions(t *testing.T) {
	out := RenderError(errors.New("boom"), plainErrorStyles())
	if out != "Error: boom" {
		t.Errorf("RenderError() = %q, want %q", out, "Error: boom")
	}
	if RenderError(nil, plainErrorStyles()) != "" {
		t.Error("RenderError(nil) should be empty")
	}
}
