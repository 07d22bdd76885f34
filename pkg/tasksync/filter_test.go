package tasksync

import (
	"strings"
	"testing"

	"taskdeck/pkg/models"
)

func TestFilter(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Buy milk", Description: "Two litres from the corner shop"},
		{ID: 2, Title: "Walk dog", Description: "Evening walk in the park"},
		{ID: 3, Title: "Call plumber", Description: "Kitchen sink is leaking MILKY water"},
	}

	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 2, 3}},
		{"   ", []int64{1, 2, 3}},
		{"milk", []int64{1, 3}},
		{"WALK", []int64{2}},
		{"park", []int64{2}},
		{"dentist", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Filter(tasks, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) returned %d tasks, want %d", tt.query, len(got), len(tt.want))
			}
			for i, task := range got {
				if task.ID != tt.want[i] {
					t.Errorf("Filter(%q)[%d] = %d, want %d", tt.query, i, task.ID, tt.want[i])
				}
			}
		})
	}
}

func TestFilterPartitionsCollection(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Buy milk", Description: "Two litres from the corner shop"},
		{ID: 2, Title: "Walk dog", Description: "Evening walk in the park"},
		{ID: 3, Title: "Tax return", Description: "File before the deadline"},
	}
	matches := func(task models.Task, q string) bool {
		q = strings.ToLower(q)
		return strings.Contains(strings.ToLower(task.Title), q) ||
			strings.Contains(strings.ToLower(task.Description), q)
	}

	for _, q := range []string{"a", "The", "k", "xyz", "Walk"} {
		included := map[int64]bool{}
		for _, task := range Filter(tasks, q) {
			if !matches(task, q) {
				t.Errorf("Filter(%q) returned non-matching task %d", q, task.ID)
			}
			included[task.ID] = true
		}
		for _, task := range tasks {
			if !included[task.ID] && matches(task, q) {
				t.Errorf("Filter(%q) dropped matching task %d", q, task.ID)
			}
		}
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	tasks := []models.Task{{ID: 1, Title: "Buy milk"}, {ID: 2, Title: "Walk dog"}}
	Filter(tasks, "dog")
	if tasks[0].ID != 1 || tasks[1].ID != 2 || len(tasks) != 2 {
		t.Errorf("input changed: %+v", tasks)
	}
}
