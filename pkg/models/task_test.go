package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validDraft() Draft {
	return Draft{
		Title:       "Walk dog",
		Description: "Evening walk in the park",
		DueDate:     Date{Year: 2025, Month: time.June, Day: 1},
		Status:      StatusPending,
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		field  string
	}{
		{"valid", func(d *Draft) {}, ""},
		{"empty title", func(d *Draft) { d.Title = "  " }, "title"},
		{"short title", func(d *Draft) { d.Title = "ab" }, "title"},
		{"short description", func(d *Draft) { d.Description = "too short" }, "description"},
		{"missing date", func(d *Draft) { d.DueDate = Date{} }, "dueDate"},
		{"impossible date", func(d *Draft) { d.DueDate = Date{Year: 2025, Month: time.February, Day: 30} }, "dueDate"},
		{"bad status", func(d *Draft) { d.Status = "DONE" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field(tt.field) == "" {
				t.Errorf("expected a problem for field %q, got %+v", tt.field, verr.Fields)
			}
		})
	}
}

func TestParseDraftCollectsEveryField(t *testing.T) {
	_, err := ParseDraft("ab", "short", "2025-13-01", "later")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ParseDraft() error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"title", "description", "dueDate", "status"} {
		if verr.Field(field) == "" {
			t.Errorf("missing problem for %q in %+v", field, verr.Fields)
		}
	}
	if got := verr.Field("dueDate"); got == "due date is required" {
		t.Errorf("parse error should win over the generic required message, got %q", got)
	}
}

func TestParseDraftDefaultsStatus(t *testing.T) {
	d, err := ParseDraft(" Walk dog ", "Evening walk in the park", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ParseDraft() error = %v", err)
	}
	if d.Status != StatusPending {
		t.Errorf("Status = %v, want PENDING", d.Status)
	}
	if d.Title != "Walk dog" {
		t.Errorf("Title = %q, want trimmed", d.Title)
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"pending":     StatusPending,
		"in progress": StatusInProgress,
		"in-progress": StatusInProgress,
		"COMPLETED":   StatusCompleted,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStatus("finished"); !IsValidationError(err) {
		t.Errorf("ParseStatus(finished) error = %v, want ValidationError", err)
	}
}

func TestStatusNext(t *testing.T) {
	if got := StatusPending.Next().Next().Next(); got != StatusPending {
		t.Errorf("three steps from PENDING = %v, want PENDING", got)
	}
}

func TestTaskJSONUsesStringDates(t *testing.T) {
	task := Task{ID: 7, Title: "Buy milk", Description: "Two litres, semi-skimmed", DueDate: Date{2025, time.June, 1}, Status: StatusInProgress}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":7,"title":"Buy milk","description":"Two litres, semi-skimmed","dueDate":"2025-06-01","status":"IN_PROGRESS"}`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}

	var back Task
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != task {
		t.Errorf("decoded %+v, want %+v", back, task)
	}
}

func TestDateAcceptsTimestamps(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-06-01T00:00:00.000Z"`), &d); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if d.String() != "2025-06-01" {
		t.Errorf("date = %s, want 2025-06-01", d)
	}
	if err := json.Unmarshal([]byte(`"June 1st"`), &d); err == nil {
		t.Error("expected an error for a malformed date")
	}
}
