// Command glassd mirrors phone notifications onto AR glasses and drives the
// app launcher overlay from a gamepad.
//
// Usage:
//
//	glassd serve --port 8000 --dev
//	glassd classify --package com.waze --title "Dans 300 m" --content "Tournez à droite"
//	glassd version
//
// Configuration comes from the environment, after merging an optional
// .env file. Flags override the environment.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	api "github.com/GriffinCanCode/glassd/internal/api/http"
	"github.com/GriffinCanCode/glassd/internal/domain/navigation"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/config"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/server"
)

func main() {
	root := &cobra.Command{
		Use:           "glassd",
		Short:         "Notification mirror and launcher daemon for AR glasses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(classifyCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "glassd:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		envFile string
		port    string
		dev     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("dev") {
				cfg.Logging.Development = dev
			}

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")
	cmd.Flags().StringVar(&port, "port", "8000", "HTTP port")
	cmd.Flags().BoolVar(&dev, "dev", false, "development logging")
	return cmd
}

func classifyCmd() *cobra.Command {
	var in navigation.Input
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a notification as navigation or general",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := map[string]string{"kind": navigation.ClassifyInput(in).String()}
			if kw := navigation.MatchKeyword(in.Title, in.Content); kw != "" {
				out["keyword"] = kw
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&in.Package, "package", "", "source package")
	cmd.Flags().StringVar(&in.AppName, "app", "", "application name")
	cmd.Flags().StringVar(&in.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&in.Content, "content", "", "notification text")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "glassd", api.Version)
		},
	}
}
