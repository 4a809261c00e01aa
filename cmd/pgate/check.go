package main

import (
	"fmt"

	"github.com/koustreak/pgate/internal/logger"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Open and close one connection with the resolved settings",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	cmd.Flags().Bool("must", false, "Abort through the fatal path instead of returning an error")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := newSetup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	must, _ := cmd.Flags().GetBool("must")
	if must {
		h := s.gw.MustConnect(ctx, s.cfg)
		s.gw.Close(ctx, h)
	} else {
		h, err := s.gw.Connect(ctx, s.cfg)
		if err != nil {
			return err
		}
		s.gw.Close(ctx, h)
	}

	s.log.InfoWith("connection ok", logger.Fields{
		"driver": string(s.driver),
		"host":   s.cfg.Host,
		"port":   s.cfg.Port,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %s:%d\n", s.driver, s.cfg.Host, s.cfg.Port)
	return nil
}
