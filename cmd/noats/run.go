package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/noats"
	"github.com/aretw0/noats/pkg/config"
	"github.com/aretw0/noats/pkg/hotkey"
)

var (
	runWatch bool
	runStdin bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Restore the saved notes and run the session",
	Long: `Run restores the saved notes and keeps the session alive until interrupted.

Without a windowing toolkit the session is headless: with --stdin, each line
read from standard input is a chord (e.g. "ctrl+j") or an action name
("create", "hide-all", "show-all", "reload").`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := sessionOptions(cfg)
		if cmd.Flags().Changed("watch") {
			opts = append(opts, noats.WithWatch(runWatch))
		}
		if runStdin {
			bindings, err := cfg.Bindings()
			if err != nil {
				fatal("Error reading hotkeys", err)
			}
			bridge := hotkey.NewLineBridge(os.Stdin, bindings, slog.Default())
			if err := bridge.Start(ctx); err != nil {
				fatal("Error starting hotkey reader", err)
			}
			opts = append(opts, noats.WithBridge(bridge))
		}

		app, err := noats.New(ctx, "", opts...)
		if err != nil {
			fatal("Error initializing noats", err)
		}

		events := app.Events()
		if err := events.Start(ctx); err != nil {
			fatal("Error starting event stream", err)
		}
		go func() {
			for e := range events.Events() {
				slog.Debug("session event", "event", e.String())
			}
		}()

		if err := app.Run(ctx); err != nil {
			fatal("Error running session", err)
		}
		slog.Info("session closed", "dir", app.DataDir)
	},
}

// sessionOptions maps the configuration and global flags to facade options.
func sessionOptions(cfg *config.Config) []noats.Option {
	return []noats.Option{
		noats.WithConfig(cfg),
		noats.WithLogger(slog.Default()),
		noats.WithDevSafety(!unsafeDev),
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Reload when the state file is edited by hand")
	runCmd.Flags().BoolVar(&runStdin, "stdin", false, "Read chords or action names from standard input")
}
