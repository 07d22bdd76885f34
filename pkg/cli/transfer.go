package cli

import (
	"context"

	"github.com/spf13/cobra"

	"taskdeck/pkg/app"
	"taskdeck/pkg/commands"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export your tasks to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exportType, _ := cmd.Flags().GetString("type")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleExportCommand(a, cmd.OutOrStdout(), args[0], exportType)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create tasks from a json, yaml or txt file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleImportCommand(ctx, a, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	exportCmd.Flags().String("type", "", "Export file type (json, yaml, txt); defaults to the file extension")
}
