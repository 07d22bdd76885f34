// Package cli defines the taskdeck command line. Without a subcommand it
// starts the terminal UI.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskdeck/pkg/app"
	"taskdeck/pkg/config"
	"taskdeck/pkg/ui"
	"taskdeck/pkg/utils"
)

var (
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg    config.Config
	styles config.Styles

	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskdeck",
		Short: "Taskdeck - tasks synced with your account",
		Long: `Taskdeck keeps a personal task list on a REST backend.

Run without a subcommand to open the terminal UI, or use the subcommands
for scripting.`,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { utils.CloseLogger() },
		RunE:              runTUI,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for one-shot commands")
}

// Execute runs the command line
func Execute() error {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assertionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		return err
	}
	return nil
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, styles, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd == serveCmd {
		utils.InitLoggerTo(os.Stderr, verbose)
	} else {
		utils.InitLogger(verbose)
	}
	utils.Log("Using config %s", cfg.Path)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a := app.New(cfg, styles)
	model := ui.NewModel(ctx, a.Gate, a.Store, cfg, styles)
	p := tea.NewProgram(model, tea.WithAltScreen())

	a.Start(ctx, ui.Notifier(p.Send))
	defer a.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// withApp opens a client for a one-shot command and waits for the saved
// session to be restored
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a := app.New(cfg, styles)
	defer a.Close()
	if _, err := a.Open(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

// withUser is withApp for commands that need a signed-in user
func withUser(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if _, err := a.Gate.Principal(); err != nil {
			return fmt.Errorf("%w: run 'taskdeck login' first", err)
		}
		return fn(ctx, a)
	})
}
