// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/guts/config"
)

type VersionResponse struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	BuildTime string `json:"buildTime"`
	BuildHash string `json:"buildHash"`
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of " + config.CLIName,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd.OutOrStdout(), getVersion())
	},
}

func getVersion() VersionResponse {
	return VersionResponse{
		Version:   config.Version(),
		GoVersion: config.GoVersion(),
		BuildTime: config.BuildTime,
		BuildHash: config.BuildHash,
	}
}

func writeVersion(w io.Writer, version VersionResponse) error {
	if done, err := writeStructured(w, version); done {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Client Version", "Go Version", "Build Time"})
	table.Append([]string{version.Version, version.GoVersion, version.BuildTime})
	table.Render()
	return nil
}
