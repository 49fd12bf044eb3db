package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	ctx := newCommandContext(&addrFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "clipforge",
		Short:         "Clipforge media clip CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newJobCommand(ctx))
	rootCmd.AddCommand(newClipCommand(ctx))
	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newChildrenCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
