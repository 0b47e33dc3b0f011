package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aikokb/internal/kb"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of aikokb",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aikokb %s (artifact format %d)\n", version, kb.FormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
