package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/noats/pkg/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the available note themes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}
		extra, err := theme.LoadTOMLFile(cfg.ResolvedThemesFile())
		if err != nil {
			fatal("Error loading themes", err)
		}
		catalog, err := theme.NewCatalog(theme.WithThemes(extra...))
		if err != nil {
			fatal("Error building catalog", err)
		}

		for _, name := range catalog.Names() {
			def, _ := catalog.ByName(name)
			fmt.Printf("%-12s background %s  text %s  selection %s\n", def.Name, def.Background, def.Text, def.Selection)
		}
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
