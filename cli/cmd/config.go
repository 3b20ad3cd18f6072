// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/netapp/guts/config"
	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
)

var configFile string

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configDefaultsCmd)

	configValidateCmd.Flags().StringVarP(&configFile, "filename", "f", "", "Path to a YAML or JSON configuration file")
	_ = configValidateCmd.MarkFlagRequired("filename")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with event service configuration files",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file and print its thread policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := GenerateRequestContext(cmd.Context(), "", ContextSourceCLI, WorkflowCLIConfig, LogLayerCLI)
		Logc(ctx).WithField("file", configFile).Debug("Validating configuration.")
		return validateConfig(cmd.OutOrStdout(), configFile)
	},
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the configuration used when no file is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), config.DefaultFile())
	},
}

func validateConfig(w io.Writer, path string) error {
	f, err := config.LoadFile(path)
	if err != nil {
		problems := multierr.Errors(err)
		for _, problem := range problems {
			_, _ = fmt.Fprintf(w, "error: %v\n", problem)
		}
		return fmt.Errorf("configuration %s has %d problem(s)", path, len(problems))
	}
	// Building the options catches what the file format alone cannot.
	if _, err = eventbus.OptionsFromFile(f); err != nil {
		return err
	}
	return writeConfig(w, f)
}

func writeConfig(w io.Writer, f *config.File) error {
	if done, err := writeStructured(w, f); done {
		return err
	}

	interval, err := f.Interval()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Cleanup interval: %s\n", interval)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Policy", "Kind", "Workers", "Pools", "Non-blocking", "Mailbox"})
	for _, p := range f.Policies {
		table.Append([]string{
			p.Name,
			string(p.Kind),
			strconv.Itoa(p.Workers),
			strconv.Itoa(p.Pools),
			strconv.FormatBool(p.NonBlocking),
			strconv.Itoa(p.MailboxSize),
		})
	}
	table.Render()
	return nil
}
