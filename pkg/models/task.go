package models

import (
	"strings"
	"unicode/utf8"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses lists every valid status in display order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Field length limits
const (
	MinTitleLength       = 3
	MinDescriptionLength = 10
)

// IsValid reports whether s is one of the enumerated statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label returns a human readable status name
func (s Status) Label() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusInProgress:
		return "In Progress"
	default:
		return "To Do"
	}
}

// Next cycles PENDING -> IN_PROGRESS -> COMPLETED -> PENDING
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPending
}

// ParseStatus accepts the enumerated names case-insensitively, with spaces
// or dashes in place of underscores.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	st := Status(norm)
	if !st.IsValid() {
		return "", NewValidationError("status", "status must be one of PENDING, IN_PROGRESS, COMPLETED")
	}
	return st, nil
}

// Task is a persisted task. ID is assigned by the server and is zero until
// the task has been stored once.
type Task struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	DueDate     Date   `json:"dueDate" yaml:"due_date"`
	Status      Status `json:"status" yaml:"status"`
}

// Draft returns the editable fields of the task
func (t Task) Draft() Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
	}
}

// Draft is user-supplied task data that has not been persisted yet
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     Date   `json:"dueDate"`
	Status      Status `json:"status"`
}

// Validate checks the draft against the task shape constraints
func (d Draft) Validate() error {
	verr := &ValidationError{}
	title := strings.TrimSpace(d.Title)
	switch {
	case title == "":
		verr.Add("title", "title is required")
	case utf8.RuneCountInString(title) < MinTitleLength:
		verr.Add("title", "title must be at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < MinDescriptionLength {
		verr.Add("description", "description must be at least 10 characters")
	}
	switch {
	case d.DueDate.IsZero():
		verr.Add("dueDate", "due date is required")
	case !d.DueDate.IsValid():
		verr.Add("dueDate", "due date is not a real calendar date")
	}
	if !d.Status.IsValid() {
		verr.Add("status", "status must be one of PENDING, IN_PROGRESS, COMPLETED")
	}
	return verr.OrNil()
}

// Normalized returns a copy with surrounding whitespace removed
func (d Draft) Normalized() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

// ParseDraft builds a draft from raw form input. An empty status defaults
// to PENDING. Every field problem is collected into one ValidationError.
func ParseDraft(title, description, dueDate, status string) (Draft, error) {
	verr := &ValidationError{}
	d := Draft{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      StatusPending,
	}

	if strings.TrimSpace(dueDate) == "" {
		verr.Add("dueDate", "due date is required")
	} else if parsed, err := ParseDate(strings.TrimSpace(dueDate)); err != nil {
		verr.Add("dueDate", err.Error())
	} else {
		d.DueDate = parsed
	}

	if strings.TrimSpace(status) != "" {
		st, err := ParseStatus(status)
		if err != nil {
			verr.Add("status", "status must be one of PENDING, IN_PROGRESS, COMPLETED")
		} else {
			d.Status = st
		}
	}

	if err := d.Validate(); err != nil {
		verr.Merge(err.(*ValidationError))
	}
	return d, verr.OrNil()
}
