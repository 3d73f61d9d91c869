package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/wingchat/internal/api"
	"github.com/ehrlich-b/wingchat/internal/logger"
	"github.com/ehrlich-b/wingchat/internal/ui"
)

const fetchTimeout = 30 * time.Second

func filesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files [dir]",
		Short: "Print the server's output file tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Profile.OutputDir
			if len(args) == 1 {
				dir = args[0]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
			defer cancel()

			client := api.NewClient(a.cfg.APIBase(), a.cfg.Token)
			nodes, err := client.FileTree(ctx, dir)
			if err != nil {
				return fmt.Errorf("file tree: %w", err)
			}
			r := ui.NewRenderer(ui.DefaultTheme())
			fmt.Fprint(cmd.OutOrStdout(), r.Tree(api.SeedRoot(nodes, dir), true))
			return nil
		},
	}
}

func catCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
			defer cancel()

			client := api.NewClient(a.cfg.APIBase(), a.cfg.Token)
			data, err := client.FileContent(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			width, tty := termWidth(out)
			if raw || !tty {
				_, err = out.Write(data)
				return err
			}
			logger.Debug("rendering file", "path", args[0], "bytes", len(data))
			r := ui.NewRenderer(ui.DefaultTheme())
			r.SetWidth(width)
			fmt.Fprint(out, r.File(args[0], data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "write bytes unchanged even on a terminal")
	return cmd
}
