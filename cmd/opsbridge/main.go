// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Command opsbridge serves the plugin integration API and runs one-off
// administrative tasks against the same configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opsbridge",
		Short:         "Plugin integration engine for ops and security systems",
		Long:          `opsbridge exposes ticketing, SIEM, firewall, monitoring and search systems through one query and health API.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(sweepCmd())
	cmd.AddCommand(pluginsCmd())
	return cmd
}
