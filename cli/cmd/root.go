// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/netapp/guts/config"
	. "github.com/netapp/guts/logging"
)

const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"

	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

var (
	ExitCode int

	Debug        bool
	LogLevel     string
	LogFormat    string
	OutputFormat string
)

var RootCmd = &cobra.Command{
	SilenceUsage: true,
	Use:          config.CLIName,
	Short:        "A CLI tool for GUTS event channels",
	Long:         "A CLI tool for validating event service configuration, benchmarking channels and serving metrics",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&Debug, "debug", "d", false, "Debug output")
	RootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", config.DefaultLogLevel,
		"Log level (trace, debug, info, warn, error, fatal)")
	RootCmd.PersistentFlags().StringVar(&LogFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	RootCmd.PersistentFlags().StringVarP(&OutputFormat, "output", "o", "", "Output format. One of json|yaml|table (default)")
}

func initLogging() error {
	if err := InitLogLevel(Debug, LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q; %v", LogLevel, err)
	}
	return InitLogFormat(LogFormat)
}

func SetExitCodeFromError(err error) {
	ExitCode = GetExitCodeFromError(err)
}

func GetExitCodeFromError(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	return ExitCodeFailure
}

// writeStructured prints v as JSON or YAML and reports whether the output format asked for either.
func writeStructured(w io.Writer, v any) (bool, error) {
	switch OutputFormat {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprint(w, string(data))
		return true, err
	case FormatTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format %q", OutputFormat)
	}
}
