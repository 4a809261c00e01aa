package main

import (
	"os/signal"
	"syscall"

	"github.com/koustreak/pgate/internal/probe"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz and /probe over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSetup(cmd)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("listen")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return probe.New(s.gw, s.cfg, s.log).ListenAndServe(ctx, addr)
}
