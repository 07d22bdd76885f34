package tasksync

import (
	"strings"

	"taskdeck/pkg/models"
)

// Filter returns the tasks whose title or description contains query,
// ignoring case. A blank query returns tasks unchanged. Filter never
// modifies its input.
func Filter(tasks []models.Task, query string) []models.Task {
	if strings.TrimSpace(query) == "" {
		return tasks
	}

	q := strings.ToLower(query)
	filtered := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), q) ||
			strings.Contains(strings.ToLower(task.Description), q) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}
