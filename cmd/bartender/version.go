package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/bartender"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bartender",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bartender version %s\n", strings.TrimSpace(bartender.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
