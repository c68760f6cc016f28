package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/noats"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		state, err := noats.Snapshot(context.Background(), "", sessionOptions(cfg)...)
		if err != nil {
			fatal("Error reading state", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(state); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for i, w := range state.Widgets {
			visibility := "shown"
			if !w.IsVisible {
				visibility = "hidden"
			}
			fmt.Printf("%d\t%-10s %-6s %4.0f,%-4.0f %3.0fx%-3.0f %s\n",
				i, w.ThemeName, visibility, w.X, w.Y, w.Width, w.Height, firstLine(w.Content))
		}
	},
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		line += " …"
	}
	if len([]rune(line)) > 60 {
		line = string([]rune(line)[:59]) + "…"
	}
	return line
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
