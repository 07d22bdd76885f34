package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"taskdeck/pkg/app"
	"taskdeck/pkg/models"
)

// exportFile is the document written by json and yaml exports
type exportFile struct {
	Owner string        `json:"owner" yaml:"owner"`
	Tasks []models.Task `json:"tasks" yaml:"tasks"`
}

// HandleExportCommand writes the loaded tasks to filename
func HandleExportCommand(a *app.App, out io.Writer, filename, exportType string) error {
	tasks := a.Store.Tasks()

	if exportType == "" {
		exportType = typeFromExtension(filename)
	}
	content, err := encodeTasks(a.Store.Owner(), tasks, exportType)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	fmt.Fprintf(out, "Successfully exported %d task(s) to %s\n", len(tasks), filename)
	return nil
}

func encodeTasks(owner string, tasks []models.Task, exportType string) ([]byte, error) {
	switch exportType {
	case "json":
		return json.MarshalIndent(exportFile{Owner: owner, Tasks: tasks}, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(exportFile{Owner: owner, Tasks: tasks})
	case "txt":
		var lines []string
		var lastDate string
		for _, task := range tasks {
			dateStr := task.DueDate.String()
			if dateStr != lastDate {
				lines = append(lines, fmt.Sprintf("\n%s:", dateStr))
				lastDate = dateStr
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s :: %s", txtMark(task.Status), task.Title, task.Description))
		}
		return []byte(strings.TrimSpace(strings.Join(lines, "\n")) + "\n"), nil
	}
	return nil, fmt.Errorf("unknown export type: %s", exportType)
}

func typeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".txt":
		return "txt"
	}
	return "json"
}

func txtMark(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "x"
	case models.StatusInProgress:
		return "~"
	}
	return " "
}
