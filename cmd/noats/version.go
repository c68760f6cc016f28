package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/noats"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of noats",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("noats version %s\n", strings.TrimSpace(noats.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
