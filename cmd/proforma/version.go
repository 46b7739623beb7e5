package main

import (
	"fmt"

	"github.com/LucienMarcon/APP-BP/internal/version"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "proforma %s\n", version.String())
		},
	}
}
