package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *a.cfg
			if c.Token != "" {
				c.Token = "<redacted>"
			}
			data, err := c.Marshal()
			if err != nil {
				return err
			}
			wsURL, err := a.cfg.WSURL()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(data))
			fmt.Fprintf(out, "# websocket: %s\n# api: %s\n", wsURL, a.cfg.APIBase())
			return nil
		},
	}
}
