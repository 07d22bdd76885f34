package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taskdeck/pkg/app"
	"taskdeck/pkg/models"
)

// HandleList prints the loaded tasks matching search
func HandleList(a *app.App, out io.Writer, search string, asJSON bool) error {
	tasks := a.Store.View(search)
	if asJSON {
		return writeJSON(out, tasks)
	}

	if len(tasks) == 0 {
		if search != "" {
			fmt.Fprintf(out, "No tasks match %q.\n", search)
		} else {
			fmt.Fprintln(out, "No tasks.")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDUE\tTITLE")
	for _, task := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", task.ID, task.Status, task.DueDate, task.Title)
	}
	return w.Flush()
}

// HandleShow prints one task
func HandleShow(a *app.App, out io.Writer, id int64, asJSON bool) error {
	task, err := a.FindTask(id)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, task)
	}
	fmt.Fprint(out, formatTask(task))
	return nil
}

func formatTask(task models.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:          %d\n", task.ID)
	fmt.Fprintf(&sb, "Title:       %s\n", task.Title)
	fmt.Fprintf(&sb, "Description: %s\n", task.Description)
	fmt.Fprintf(&sb, "Due:         %s\n", task.DueDate)
	fmt.Fprintf(&sb, "Status:      %s\n", task.Status.Label())
	return sb.String()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
