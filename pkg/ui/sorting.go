package ui

import (
	"sort"
	"strings"

	"taskdeck/pkg/models"
)

// SortBy selects the column the task list is ordered by. Sorting only
// changes what is shown; the store keeps insertion order.
type SortBy int

const (
	SortByNone SortBy = iota
	SortByDueDate
	SortByTitle
	SortByStatus
	sortByCount
)

func (s SortBy) String() string {
	switch s {
	case SortByDueDate:
		return "due date"
	case SortByTitle:
		return "title"
	case SortByStatus:
		return "status"
	}
	return "created"
}

// SortOrder is the direction of the ordering
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

func (o SortOrder) String() string {
	if o == SortDesc {
		return "desc"
	}
	return "asc"
}

// SortTasks returns a sorted copy of tasks. Ties keep their original order.
func SortTasks(tasks []models.Task, by SortBy, order SortOrder) []models.Task {
	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	if by == SortByNone && order == SortAsc {
		return sorted
	}

	less := func(a, b models.Task) bool {
		switch by {
		case SortByDueDate:
			return a.DueDate.Before(b.DueDate)
		case SortByTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortByStatus:
			return statusRank(a.Status) < statusRank(b.Status)
		}
		return false
	}

	if by == SortByNone {
		// Newest first
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == SortDesc {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func statusRank(s models.Status) int {
	for i, st := range models.Statuses {
		if st == s {
			return i
		}
	}
	return len(models.Statuses)
}
