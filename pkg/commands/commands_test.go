package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"taskdeck/pkg/app"
	"taskdeck/pkg/config"
	"taskdeck/pkg/database"
	"taskdeck/pkg/models"
	"taskdeck/pkg/server"
)

// signedInApp starts a backend and returns a client signed in as a new user
func signedInApp(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.ConnectDB(filepath.Join(t.TempDir(), "dev.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	srv := server.New(db, server.Config{Tokens: server.TokenConfig{Secret: "test-secret"}, BcryptCost: bcrypt.MinCost})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	a := app.New(config.Config{
		APIURL: ts.URL,
		Identity: config.IdentityConfig{
			IdentityURL: ts.URL + "/identitytoolkit.googleapis.com/v1",
			TokenURL:    ts.URL + "/securetoken.googleapis.com/v1/token",
		},
	}, config.DefaultStyles())
	t.Cleanup(a.Close)

	ctx := context.Background()
	if _, err := a.Open(ctx); err != nil {
		t.Fatal(err)
	}
	p := NewPrompter(strings.NewReader("Alice\nsecret1\nsecret1\n"), &bytes.Buffer{})
	if err := HandleSignUp(ctx, a, p, "alice@example.com", ""); err != nil {
		t.Fatalf("HandleSignUp() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for a.Store.Owner() == "" {
		if time.Now().After(deadline) {
			t.Fatal("tasks were not loaded after sign-up")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return a
}

func TestAddEditDelete(t *testing.T) {
	a := signedInApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := HandleAddTask(ctx, a, &out, TaskInput{Title: "Buy milk", Description: "Two liters from the store", DueDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("HandleAddTask() error = %v", err)
	}
	tasks := a.Store.Tasks()
	if len(tasks) != 1 || tasks[0].Status != models.StatusPending {
		t.Fatalf("tasks = %+v", tasks)
	}
	id := tasks[0].ID

	if err := HandleEditTask(ctx, a, &out, id, TaskInput{Status: "in progress"}); err != nil {
		t.Fatalf("HandleEditTask() error = %v", err)
	}
	task, _ := a.Store.Get(id)
	if task.Status != models.StatusInProgress || task.Title != "Buy milk" {
		t.Errorf("task after edit = %+v", task)
	}

	p := NewPrompter(strings.NewReader("n\n"), &out)
	if err := HandleDeleteTask(ctx, a, p, id, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Store.Get(id); !ok {
		t.Fatal("answering n must keep the task")
	}
	if err := HandleDeleteTask(ctx, a, p, id, true); err != nil {
		t.Fatalf("HandleDeleteTask() error = %v", err)
	}
	if len(a.Store.Tasks()) != 0 {
		t.Error("task was not deleted")
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	a := signedInApp(t)
	err := HandleAddTask(context.Background(), a, &bytes.Buffer{}, TaskInput{Title: "ab", Description: "short"})
	if !models.IsValidationError(err) {
		t.Fatalf("error = %v, want a validation error", err)
	}
	if len(a.Store.Tasks()) != 0 {
		t.Error("invalid task was stored")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, ext := range []string{"json", "yaml", "txt"} {
		t.Run(ext, func(t *testing.T) {
			a := signedInApp(t)
			ctx := context.Background()
			var out bytes.Buffer

			HandleAddTask(ctx, a, &out, TaskInput{Title: "Buy milk", Description: "Two liters from the store", DueDate: "2025-06-01"})
			HandleAddTask(ctx, a, &out, TaskInput{Title: "Walk dog", Description: "Evening walk in the park", DueDate: "2025-06-02", Status: "COMPLETED"})

			file := filepath.Join(t.TempDir(), "tasks."+ext)
			if err := HandleExportCommand(a, &out, file, ""); err != nil {
				t.Fatalf("export error = %v", err)
			}
			if err := HandleImportCommand(ctx, a, &out, file); err != nil {
				t.Fatalf("import error = %v", err)
			}

			tasks := a.Store.Tasks()
			if len(tasks) != 4 {
				t.Fatalf("got %d tasks after import, want 4", len(tasks))
			}
			if tasks[3].Title != "Walk dog" || tasks[3].Status != models.StatusCompleted || tasks[3].DueDate.String() != "2025-06-02" {
				t.Errorf("imported task = %+v", tasks[3])
			}
			if tasks[2].ID == tasks[0].ID {
				t.Error("imported tasks must get new ids")
			}
		})
	}
}

func TestImportSkipsInvalidEntries(t *testing.T) {
	a := signedInApp(t)
	file := filepath.Join(t.TempDir(), "tasks.txt")
	content := "2025-06-01:\n- [ ] ok :: too short\n- [x] Water plants :: Balcony and kitchen plants\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := HandleImportCommand(context.Background(), a, &out, file); err != nil {
		t.Fatal(err)
	}
	if len(a.Store.Tasks()) != 1 {
		t.Errorf("tasks = %+v", a.Store.Tasks())
	}
	if !strings.Contains(out.String(), `Skipping "ok"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestPurgeCompleted(t *testing.T) {
	a := signedInApp(t)
	ctx := context.Background()
	var out bytes.Buffer
	HandleAddTask(ctx, a, &out, TaskInput{Title: "Buy milk", Description: "Two liters from the store", DueDate: "2025-06-01", Status: "COMPLETED"})
	HandleAddTask(ctx, a, &out, TaskInput{Title: "Walk dog", Description: "Evening walk in the park", DueDate: "2025-06-02"})

	p := NewPrompter(strings.NewReader(""), &out)
	if err := HandlePurge(ctx, a, p, PurgeFilter{Status: "completed"}, true); err != nil {
		t.Fatal(err)
	}
	tasks := a.Store.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Walk dog" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestListAndShow(t *testing.T) {
	a := signedInApp(t)
	ctx := context.Background()
	var out bytes.Buffer
	HandleAddTask(ctx, a, &out, TaskInput{Title: "Buy milk", Description: "Two liters from the store", DueDate: "2025-06-01"})
	HandleAddTask(ctx, a, &out, TaskInput{Title: "Walk dog", Description: "Evening walk in the park", DueDate: "2025-06-02"})

	out.Reset()
	if err := HandleList(a, &out, "PARK", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Walk dog") || strings.Contains(out.String(), "Buy milk") {
		t.Errorf("list output = %q", out.String())
	}

	out.Reset()
	id := a.Store.Tasks()[0].ID
	if err := HandleShow(a, &out, id, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Status:      To Do") {
		t.Errorf("show output = %q", out.String())
	}

	if err := HandleShow(a, &out, 999, false); !models.IsValidationError(err) {
		t.Errorf("show unknown id error = %v", err)
	}
}

func TestParseTxt(t *testing.T) {
	drafts := parseTxt("2025-06-01:\n- [~] Title here :: Longer description\nnot a task\n- [ ] Just one line of text\n")
	if len(drafts) != 2 {
		t.Fatalf("drafts = %+v", drafts)
	}
	if drafts[0].Status != models.StatusInProgress || drafts[0].Description != "Longer description" {
		t.Errorf("first = %+v", drafts[0])
	}
	if drafts[1].Title != drafts[1].Description || drafts[1].DueDate.String() != "2025-06-01" {
		t.Errorf("second = %+v", drafts[1])
	}
}

func TestPrompterConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
		if got := p.Confirm("Continue?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
