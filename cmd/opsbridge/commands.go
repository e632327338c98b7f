// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"opsbridge/platform/app"
)

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := app.LoadConfig()
			if port != "" {
				cfg.Port = port
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func sweepCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Probe every configured instance once and print the report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.LoadConfig()
			if cmd.Flags().Changed("concurrency") {
				cfg.SweepConcurrency = concurrency
			}
			return withApp(cmd.Context(), cfg, func(a *app.App) error {
				report := a.Service.Sweep(cmd.Context())
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			})
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "maximum concurrent probes (overrides HEALTH_SWEEP_CONCURRENCY)")
	return cmd
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins and their instance counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), app.LoadConfig(), func(a *app.App) error {
				return printPlugins(cmd.OutOrStdout(), a)
			})
		},
	}
}

func withApp(ctx context.Context, cfg app.Config, fn func(*app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

func printPlugins(w io.Writer, a *app.App) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tCATEGORY\tINSTANCES\tACTIVE\tQUERIES")
	for _, p := range a.Service.ListPlugins() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p.Name, p.Category, p.InstanceCount, p.ActiveInstances, len(p.DefaultQueries))
	}
	return tw.Flush()
}
