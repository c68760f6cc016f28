package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/noats"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved notes and their backup",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !resetYes {
			fmt.Println("Refusing to delete notes without --yes")
			return
		}
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}
		if err := noats.Reset(context.Background(), "", sessionOptions(cfg)...); err != nil {
			fatal("Error deleting state", err)
		}
		fmt.Println("Saved notes deleted")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Confirm deletion")
}
