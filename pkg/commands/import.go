package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"taskdeck/pkg/app"
	"taskdeck/pkg/models"
	"taskdeck/pkg/utils"
)

var (
	dateLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}):?$`)
	taskLine = regexp.MustCompile(`^-\s*\[([ x~])\]\s*(.*)$`)
)

// HandleImportCommand creates a task for every entry in filename. The file
// may be a json or yaml export, or the txt format written by export. Entries
// that fail validation are reported and skipped.
func HandleImportCommand(ctx context.Context, a *app.App, out io.Writer, filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	drafts, err := decodeTasks(content, typeFromExtension(filename))
	if err != nil {
		return err
	}

	added := 0
	for _, draft := range drafts {
		if _, err := a.Store.Create(ctx, draft); err != nil {
			if !models.IsValidationError(err) {
				return fmt.Errorf("imported %d task(s) before failing: %w", added, err)
			}
			fmt.Fprintf(out, "Skipping %q: %v\n", draft.Title, err)
			continue
		}
		added++
	}

	fmt.Fprintf(out, "Successfully imported %d task(s) from %s\n", added, filename)
	return nil
}

func decodeTasks(content []byte, fileType string) ([]models.Draft, error) {
	var doc exportFile
	switch fileType {
	case "json":
		if err := json.Unmarshal(content, &doc); err != nil {
			// A bare array of tasks is accepted too
			if err := json.Unmarshal(content, &doc.Tasks); err != nil {
				return nil, fmt.Errorf("parsing json: %w", err)
			}
		}
	case "yaml":
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return parseTxt(string(content)), nil
	}

	drafts := make([]models.Draft, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		d := task.Draft()
		if d.Status == "" {
			d.Status = models.StatusPending
		}
		drafts = append(drafts, d.Normalized())
	}
	return drafts, nil
}

// parseTxt reads "YYYY-MM-DD:" headers followed by "- [x] title :: description"
// lines. A line without " :: " uses its text for both fields.
func parseTxt(content string) []models.Draft {
	var drafts []models.Draft
	var current models.Date

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := dateLine.FindStringSubmatch(line); m != nil {
			d, err := models.ParseDate(m[1])
			if err != nil {
				utils.Log("Ignoring bad date header %q", line)
				continue
			}
			current = d
			continue
		}

		m := taskLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		status := models.StatusPending
		switch m[1] {
		case "x":
			status = models.StatusCompleted
		case "~":
			status = models.StatusInProgress
		}

		title, desc, found := strings.Cut(m[2], " :: ")
		if !found {
			desc = title
		}
		drafts = append(drafts, models.Draft{
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(desc),
			DueDate:     current,
			Status:      status,
		})
	}
	return drafts
}
