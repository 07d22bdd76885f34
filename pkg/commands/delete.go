package commands

import (
	"context"
	"fmt"

	"taskdeck/pkg/app"
	"taskdeck/pkg/models"
)

// HandleDeleteTask deletes task id after confirmation unless skipConfirm
func HandleDeleteTask(ctx context.Context, a *app.App, p *Prompter, id int64, skipConfirm bool) error {
	task, err := a.FindTask(id)
	if err != nil {
		return err
	}

	if !skipConfirm && !p.Confirm(fmt.Sprintf("Delete task %d %q?", task.ID, task.Title)) {
		fmt.Fprintln(p.Out, "Operation cancelled.")
		return nil
	}

	if err := a.Store.Select(id); err != nil {
		return err
	}
	defer a.Store.ClearSelection()
	if err := a.Store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(p.Out, "Deleted task %d\n", id)
	return nil
}

// PurgeFilter selects the tasks removed by HandlePurge
type PurgeFilter struct {
	Status  string
	DueDate string
	Search  string
}

func (f PurgeFilter) matches(task models.Task) (bool, error) {
	if f.Status != "" {
		st, err := models.ParseStatus(f.Status)
		if err != nil {
			return false, err
		}
		if task.Status != st {
			return false, nil
		}
	}
	if f.DueDate != "" {
		d, err := models.ParseDate(f.DueDate)
		if err != nil {
			return false, err
		}
		if task.DueDate != d {
			return false, nil
		}
	}
	return true, nil
}

// HandlePurge deletes every task matching filter, one at a time. It stops at
// the first failure; tasks deleted before it stay deleted.
func HandlePurge(ctx context.Context, a *app.App, p *Prompter, filter PurgeFilter, skipConfirm bool) error {
	var targets []models.Task
	for _, task := range a.Store.View(filter.Search) {
		ok, err := filter.matches(task)
		if err != nil {
			return err
		}
		if ok {
			targets = append(targets, task)
		}
	}

	if len(targets) == 0 {
		fmt.Fprintln(p.Out, "No matching tasks.")
		return nil
	}
	if !skipConfirm && !p.Confirm(fmt.Sprintf("Are you sure you want to delete %d task(s)?", len(targets))) {
		fmt.Fprintln(p.Out, "Operation cancelled.")
		return nil
	}

	deleted := 0
	for _, task := range targets {
		if err := a.Store.Select(task.ID); err != nil {
			return err
		}
		if err := a.Store.Delete(ctx, task.ID); err != nil {
			a.Store.ClearSelection()
			return fmt.Errorf("deleted %d task(s) before failing: %w", deleted, err)
		}
		deleted++
	}
	fmt.Fprintf(p.Out, "Successfully deleted %d task(s)\n", deleted)
	return nil
}
