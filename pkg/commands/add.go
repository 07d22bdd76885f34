package commands

import (
	"context"
	"fmt"
	"io"

	"taskdeck/pkg/app"
	"taskdeck/pkg/models"
)

// TaskInput holds task fields given on the command line. Empty fields keep
// their current value when editing.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// HandleAddTask creates a task. The due date defaults to today.
func HandleAddTask(ctx context.Context, a *app.App, out io.Writer, in TaskInput) error {
	if in.DueDate == "" {
		in.DueDate = models.Today().String()
	}
	draft, err := models.ParseDraft(in.Title, in.Description, in.DueDate, in.Status)
	if err != nil {
		return err
	}

	task, err := a.Store.Create(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added task %d: %s\n", task.ID, task.Title)
	return nil
}

// HandleEditTask selects task id and replaces the fields set in in
func HandleEditTask(ctx context.Context, a *app.App, out io.Writer, id int64, in TaskInput) error {
	current, err := a.FindTask(id)
	if err != nil {
		return err
	}

	merged := TaskInput{
		Title:       pick(in.Title, current.Title),
		Description: pick(in.Description, current.Description),
		DueDate:     pick(in.DueDate, current.DueDate.String()),
		Status:      pick(in.Status, string(current.Status)),
	}
	draft, err := models.ParseDraft(merged.Title, merged.Description, merged.DueDate, merged.Status)
	if err != nil {
		return err
	}

	if err := a.Store.Select(id); err != nil {
		return err
	}
	defer a.Store.ClearSelection()
	task, err := a.Store.Update(ctx, id, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated task %d: %s [%s]\n", task.ID, task.Title, task.Status.Label())
	return nil
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
