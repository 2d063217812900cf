package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the persistent flag values shared by every command.
type CommandContext struct {
	// Configuration
	ConfigPath string
	Dir        string
	Set        map[string]string

	// Execution
	DryRun         bool
	NonInteractive bool
	Plain          bool
	ManifestDir    string
	MetricsFile    string
	HistoryDB      string

	// Logging
	LogLevel  string
	LogFormat string
}

// registerPersistentFlags declares the flags NewCommandContext reads.
func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default: taskgate.yaml found from --dir upwards)")
	flags.StringP("dir", "C", "", "project directory commands run in (default: current directory)")
	flags.StringToString("set", nil, "override a setting, e.g. --set run=\"./manage.py\" (repeatable)")
	flags.BoolP("dry-run", "n", false, "print commands instead of running them")
	flags.Bool("non-interactive", false, "never prompt; a failed step with a question aborts the run")
	flags.Bool("plain", false, "use a line prompt and unstyled output")
	flags.String("manifest-dir", "", "write a JSON audit manifest per executed command to this directory")
	flags.String("history-db", "", "record every task run in this SQLite database")
	flags.String("metrics-file", "", "write Prometheus metrics for this run to this file (textfile collector format)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	dir, err := flags.GetString("dir")
	if err != nil {
		return nil, err
	}

	set, err := flags.GetStringToString("set")
	if err != nil {
		return nil, err
	}

	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	nonInteractive, err := flags.GetBool("non-interactive")
	if err != nil {
		return nil, err
	}

	plain, err := flags.GetBool("plain")
	if err != nil {
		return nil, err
	}

	manifestDir, err := flags.GetString("manifest-dir")
	if err != nil {
		return nil, err
	}

	metricsFile, err := flags.GetString("metrics-file")
	if err != nil {
		return nil, err
	}

	historyDB, err := flags.GetString("history-db")
	if err != nil {
		return nil, err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		ConfigPath:     configPath,
		Dir:            dir,
		Set:            set,
		DryRun:         dryRun,
		NonInteractive: nonInteractive,
		Plain:          plain,
		ManifestDir:    manifestDir,
		MetricsFile:    metricsFile,
		HistoryDB:      historyDB,
		LogLevel:       logLevel,
		LogFormat:      logFormat,
	}, nil
}
