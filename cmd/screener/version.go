package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpgoodman17/SPN-Site-Search/internal/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the screener version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "screener", handlers.APIVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
