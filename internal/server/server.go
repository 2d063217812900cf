// Package server exposes the task registry as an MCP tool server.
//
// Agents connect over stdio and can list tasks and run them. There is no
// operator on the other end of the transport, so every failure gate fails
// closed: a failed step with a question aborts the task.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/felixgeelhaar/taskgate/internal/env"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/gate"
	"github.com/felixgeelhaar/taskgate/internal/log"
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// Name is the server name announced during the MCP handshake.
const Name = "taskgate"

// Options configure a TaskServer.
type Options struct {
	Version  string
	Registry *task.Registry
	Settings env.Settings

	// Shell and Dir configure the executor of every run.
	Shell string
	Dir   string

	// DryRun forces every run to print commands instead of running them.
	DryRun bool

	// Manifests records an audit manifest per command when set.
	Manifests *exec.ManifestWriter

	// Observer is notified around every step.
	Observer task.Observer

	// OnReport receives the report of every run, including runs rejected
	// before execution.
	OnReport func(*task.Report)

	Logger *log.Logger
}

// TaskServer serves list_tasks and run_task. Runs are serialized.
type TaskServer struct {
	opts Options
	mcp  *mcpserver.MCPServer
	mu   sync.Mutex
}

// New creates a TaskServer with its tools registered.
func New(opts Options) *TaskServer {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &TaskServer{opts: opts}
	s.mcp = mcpserver.NewMCPServer(
		Name,
		opts.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(instructions),
	)
	s.mcp.AddTool(listTasksTool(), s.HandleListTasks)
	s.mcp.AddTool(runTaskTool(), s.HandleRunTask)
	return s
}

const instructions = `taskgate runs the project's management tasks on the local machine.
Call list_tasks to see what is available, then run_task with the task name and
its arguments. Failed steps that would normally ask the operator whether to
continue abort the task instead.`

// MCPServer returns the underlying MCP server.
func (s *TaskServer) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// Serve speaks MCP over in and out until ctx is done or in is closed.
func (s *TaskServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.opts.Logger.StdLogger(log.LevelWarn))
	s.opts.Logger.Info("mcp server listening on stdio", "tasks", s.opts.Registry.Len())
	return stdio.Listen(ctx, in, out)
}

func listTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks this project defines, with their parameters."),
	)
}

func runTaskTool() mcp.Tool {
	return mcp.NewTool("run_task",
		mcp.WithDescription(
			"Run one task and return its combined output. "+
				"Arguments are given positionally or as name=value.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task name, as reported by list_tasks"),
		),
		mcp.WithArray("args",
			mcp.Description("Task arguments, e.g. [\"billing\"] or [\"app=billing\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Print the commands instead of running them"),
		),
	)
}

type taskEntry struct {
	Name        string       `json:"name"`
	Usage       string       `json:"usage"`
	Description string       `json:"description,omitempty"`
	Params      []task.Param `json:"params,omitempty"`
}

// HandleListTasks returns the registry as JSON.
func (s *TaskServer) HandleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks := s.opts.Registry.List()
	entries := make([]taskEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, taskEntry{
			Name:        t.Name,
			Usage:       t.Usage(),
			Description: t.Description,
			Params:      t.Params,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode tasks: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HandleRunTask runs one task. Task failures are reported as tool errors
// carrying the command output, never as protocol errors.
func (s *TaskServer) HandleRunTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("task", ""))
	if name == "" {
		return mcp.NewToolResultError("task is required"), nil
	}
	rawArgs := req.GetStringSlice("args", nil)
	dryRun, _ := req.GetArguments()["dry_run"].(bool)

	t, err := s.opts.Registry.Get(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args, err := t.Bind(rawArgs)
	if err != nil {
		s.report(&task.Report{Task: name, State: task.StatePending, Err: err})
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var output bytes.Buffer
	runner := s.runner(&output, dryRun)
	report, err := runner.Run(ctx, t, args)
	s.report(report)

	text := summary(report, output.String())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v\n\n%s", err, text)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// runner builds a runner whose commands write into output and whose gate
// never asks.
func (s *TaskServer) runner(output io.Writer, dryRun bool) *task.Runner {
	logger := s.opts.Logger.With("transport", "mcp")
	executor := &exec.Executor{
		Shell:     s.opts.Shell,
		Dir:       s.opts.Dir,
		Stdout:    output,
		Stderr:    output,
		DryRun:    s.opts.DryRun || dryRun,
		Manifests: s.opts.Manifests,
		Logger:    logger,
	}
	return &task.Runner{
		Settings: s.opts.Settings,
		Executor: executor,
		Gate:     gate.New(gate.Decline{}, output, logger),
		Observer: s.opts.Observer,
		Logger:   logger,
	}
}

func (s *TaskServer) report(r *task.Report) {
	if s.opts.OnReport != nil && r != nil {
		s.opts.OnReport(r)
	}
}

func summary(r *task.Report, output string) string {
	var b strings.Builder
	if r != nil {
		fmt.Fprintf(&b, "task %s %s in %s (%d step(s))", r.Task, r.State, r.Duration().Round(time.Millisecond), len(r.Steps))
	}
	if out := strings.TrimSpace(output); out != "" {
		b.WriteString("\n\n")
		b.WriteString(out)
	}
	return b.String()
}
