package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/noats"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the store and of a restored session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		ctx := context.Background()
		app, err := noats.New(ctx, "", sessionOptions(cfg)...)
		if err != nil {
			fatal("Error initializing noats", err)
		}
		app.Controller.ReloadFromDisk(ctx)

		report := map[string]any{"data_dir": app.DataDir}
		for _, c := range []any{app.Store, app.Controller} {
			comp, ok := c.(introspection.Component)
			if !ok {
				continue
			}
			if intro, ok := c.(introspection.Introspectable); ok {
				report[comp.ComponentType()] = intro.State()
			}
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			fatal("Error encoding JSON", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
