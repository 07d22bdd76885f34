package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := ConnectDB(filepath.Join(t.TempDir(), "nested", "taskdeck.db"))
	if err != nil {
		t.Fatalf("ConnectDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	// running it twice must be harmless
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}
	return db
}

func draft(title string) models.Draft {
	return models.Draft{
		Title:       title,
		Description: "A description long enough",
		DueDate:     models.Date{Year: 2025, Month: time.June, Day: 1},
		Status:      models.StatusPending,
	}
}

func TestTaskLifecycle(t *testing.T) {
	db := openTestDB(t)

	first, err := AddTask(db, "u1", draft("Buy milk"))
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	second, err := AddTask(db, "u1", draft("Walk dog"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids = %d, %d", first.ID, second.ID)
	}
	if second.DueDate != (models.Date{Year: 2025, Month: time.June, Day: 1}) {
		t.Errorf("DueDate = %v", second.DueDate)
	}
	if _, err := AddTask(db, "u2", draft("Other user")); err != nil {
		t.Fatal(err)
	}

	tasks, err := LoadTasks(db, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 || tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Fatalf("LoadTasks() = %+v", tasks)
	}

	d := draft("Walk the dog")
	d.Status = models.StatusCompleted
	updated, err := UpdateTask(db, "u1", second.ID, d)
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "Walk the dog" || updated.Status != models.StatusCompleted {
		t.Errorf("UpdateTask() = %+v", updated)
	}

	if err := DeleteTask(db, "u1", first.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := GetTask(db, "u1", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask(deleted) error = %v", err)
	}
}

func TestTasksAreScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	task, err := AddTask(db, "u1", draft("Buy milk"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := UpdateTask(db, "u2", task.ID, draft("Hijack")); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask(other owner) error = %v", err)
	}
	if err := DeleteTask(db, "u2", task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTask(other owner) error = %v", err)
	}
	if tasks, _ := LoadTasks(db, "u2", ""); len(tasks) != 0 {
		t.Errorf("LoadTasks(u2) = %+v", tasks)
	}
}

func TestLoadTasksSearch(t *testing.T) {
	db := openTestDB(t)
	AddTask(db, "u1", draft("Buy milk"))
	AddTask(db, "u1", draft("Walk dog"))

	tasks, err := LoadTasks(db, "u1", "MILK")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("LoadTasks(MILK) = %+v", tasks)
	}
}

func TestAddUserReportsExisting(t *testing.T) {
	db := openTestDB(t)
	user := User{ID: "u1", Email: "u1@example.com", Name: "Ana"}

	created, err := AddUser(db, user)
	if err != nil || !created {
		t.Fatalf("AddUser() = %v, %v; want created", created, err)
	}
	created, err = AddUser(db, user)
	if err != nil || created {
		t.Fatalf("second AddUser() = %v, %v; want existing", created, err)
	}

	got, err := GetUser(db, "u1")
	if err != nil || got.Email != "u1@example.com" || got.Name != "Ana" {
		t.Errorf("GetUser() = %+v, %v", got, err)
	}
}

func TestAccounts(t *testing.T) {
	db := openTestDB(t)
	acct := Account{LocalID: "id-1", Email: "Ana@Example.com", PasswordHash: "hash", Provider: "password"}

	if err := AddAccount(db, acct); err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	acct.LocalID = "id-2"
	if err := AddAccount(db, acct); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate AddAccount() error = %v", err)
	}

	got, err := AccountByEmail(db, " ana@example.COM ")
	if err != nil || got.LocalID != "id-1" {
		t.Fatalf("AccountByEmail() = %+v, %v", got, err)
	}
	if err := UpdateAccountProfile(db, "id-1", "Ana Lima"); err != nil {
		t.Fatal(err)
	}
	if err := SetAccountDisabled(db, "id-1", true); err != nil {
		t.Fatal(err)
	}
	got, err = AccountByID(db, "id-1")
	if err != nil || got.DisplayName != "Ana Lima" || !got.Disabled {
		t.Errorf("AccountByID() = %+v, %v", got, err)
	}
	if _, err := AccountByID(db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AccountByID(missing) error = %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	if got := rebind(pg, "a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind(postgres) = %q", got)
	}
	lite := &DB{Dialect: SQLite}
	if got := rebind(lite, "a = ?"); got != "a = ?" {
		t.Errorf("rebind(sqlite) = %q", got)
	}
}

func TestIsPostgres(t *testing.T) {
	for dsn, want := range map[string]bool{
		"postgres://u:p@localhost/taskdeck":   true,
		"host=localhost dbname=taskdeck":      true,
		"~/.local/share/taskdeck/taskdeck.db": false,
		":memory:":                            false,
	} {
		if got := isPostgres(dsn); got != want {
			t.Errorf("isPostgres(%q) = %v, want %v", dsn, got, want)
		}
	}
}
