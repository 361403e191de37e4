// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"net"

	"enginebridge/cli/internal/bridge/grpcserver"
	"enginebridge/cli/internal/runner"

	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd exposes the command gateway over gRPC for a remote presentation layer.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command gateway over gRPC",
	Long: `The serve command listens for Gateway.Invoke calls and runs one engine process per
call, streaming its normalized log and final result back to the caller. It stops
on interrupt after in-flight calls finish.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}
		log := newLogger(cfg)

		lis, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return err
		}
		r := runner.New(cfg,
			runner.WithLogger(log),
			runner.WithEnv("PYTHONUNBUFFERED=1"),
		)
		return grpcserver.New(r, grpcserver.WithLogger(log)).Serve(cmd.Context(), lis)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default from config, 127.0.0.1:50551)")
	rootCmd.AddCommand(serveCmd)
}
