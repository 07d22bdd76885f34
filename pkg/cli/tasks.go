package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taskdeck/pkg/app"
	"taskdeck/pkg/commands"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		asJSON, _ := cmd.Flags().GetBool("json")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleList(a, cmd.OutOrStdout(), search, asJSON)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleShow(a, cmd.OutOrStdout(), id, asJSON)
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := taskInput(cmd)
		in.Title = strings.Join(args, " ")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleAddTask(ctx, a, cmd.OutOrStdout(), in)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in := taskInput(cmd)
		in.Title, _ = cmd.Flags().GetString("title")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleEditTask(ctx, a, cmd.OutOrStdout(), id, in)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleDeleteTask(ctx, a, commands.NewPrompter(os.Stdin, cmd.OutOrStdout()), id, yes)
		})
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every task matching the filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter commands.PurgeFilter
		filter.Status, _ = cmd.Flags().GetString("status")
		filter.DueDate, _ = cmd.Flags().GetString("due")
		filter.Search, _ = cmd.Flags().GetString("search")
		yes, _ := cmd.Flags().GetBool("yes")
		return withUser(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandlePurge(ctx, a, commands.NewPrompter(os.Stdin, cmd.OutOrStdout()), filter, yes)
		})
	},
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "Only tasks whose title or description contains this text")
	listCmd.Flags().Bool("json", false, "Print JSON")
	showCmd.Flags().Bool("json", false, "Print JSON")

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringP("description", "d", "", "Description (at least 10 characters)")
		c.Flags().String("due", "", "Due date (YYYY-MM-DD)")
		c.Flags().String("status", "", "PENDING, IN_PROGRESS or COMPLETED")
	}
	editCmd.Flags().StringP("title", "t", "", "New title")

	deleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	purgeCmd.Flags().String("status", "", "Only tasks with this status")
	purgeCmd.Flags().String("due", "", "Only tasks due on this date (YYYY-MM-DD)")
	purgeCmd.Flags().StringP("search", "s", "", "Only tasks matching this text")
	purgeCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}

func taskInput(cmd *cobra.Command) commands.TaskInput {
	var in commands.TaskInput
	in.Description, _ = cmd.Flags().GetString("description")
	in.DueDate, _ = cmd.Flags().GetString("due")
	in.Status, _ = cmd.Flags().GetString("status")
	return in
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
