package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskdeck/pkg/models"
	"taskdeck/pkg/utils"
)

const taskColumns = "id, title, description, due_date, status"

// LoadTasks retrieves the tasks of owner in creation order. A non-empty
// search keeps tasks whose title or description contains it.
func LoadTasks(db *DB, owner, search string) ([]models.Task, error) {
	where, args := buildTaskFilter(owner, search)
	query := "SELECT " + taskColumns + " FROM tasks WHERE " + where + " ORDER BY id"

	rows, err := db.Query(rebind(db, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Task{}
	for rows.Next() {
		item, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	utils.Log("Loaded %d tasks from database", len(items))
	return items, nil
}

// GetTask returns task id of owner
func GetTask(db *DB, owner string, id int64) (models.Task, error) {
	row := db.QueryRow(rebind(db, "SELECT "+taskColumns+" FROM tasks WHERE id = ? AND owner = ?"), id, owner)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	return task, err
}

// AddTask inserts a task for owner and returns it with its new id
func AddTask(db *DB, owner string, draft models.Draft) (models.Task, error) {
	row := db.QueryRow(rebind(db,
		`INSERT INTO tasks (owner, title, description, due_date, status, created, lastmodified)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 RETURNING `+taskColumns),
		owner,
		draft.Title,
		draft.Description,
		draft.DueDate.String(),
		string(draft.Status),
	)
	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, err
	}
	utils.Log("Added task: %d", task.ID)
	return task, nil
}

// UpdateTask replaces the fields of task id of owner
func UpdateTask(db *DB, owner string, id int64, draft models.Draft) (models.Task, error) {
	row := db.QueryRow(rebind(db,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, status = ?, lastmodified = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner = ?
		 RETURNING `+taskColumns),
		draft.Title,
		draft.Description,
		draft.DueDate.String(),
		string(draft.Status),
		id,
		owner,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	utils.Log("Updated task: %d", id)
	return task, nil
}

// DeleteTask removes task id of owner
func DeleteTask(db *DB, owner string, id int64) error {
	res, err := db.Exec(rebind(db, "DELETE FROM tasks WHERE id = ? AND owner = ?"), id, owner)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	utils.Log("Deleted task: %d", id)
	return nil
}

// AddUser records a user. It reports false when the id already exists.
func AddUser(db *DB, user User) (bool, error) {
	res, err := db.Exec(rebind(db,
		`INSERT INTO users (id, email, name, created) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO NOTHING`),
		user.ID, user.Email, user.Name,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetUser returns the user with id
func GetUser(db *DB, id string) (User, error) {
	var u User
	err := db.QueryRow(rebind(db, "SELECT id, email, name, created FROM users WHERE id = ?"), id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// AddAccount stores a new identity account
func AddAccount(db *DB, acct Account) error {
	res, err := db.Exec(rebind(db,
		`INSERT INTO accounts (local_id, email, password_hash, display_name, provider, disabled, created)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (email) DO NOTHING`),
		acct.LocalID, strings.ToLower(acct.Email), acct.PasswordHash, acct.DisplayName, acct.Provider, acct.Disabled,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEmailExists
	}
	return nil
}

// AccountByEmail looks an account up by email, ignoring case
func AccountByEmail(db *DB, email string) (Account, error) {
	return queryAccount(db, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// AccountByID looks an account up by its local id
func AccountByID(db *DB, localID string) (Account, error) {
	return queryAccount(db, "local_id = ?", localID)
}

// UpdateAccountProfile sets the display name of an account
func UpdateAccountProfile(db *DB, localID, displayName string) error {
	res, err := db.Exec(rebind(db, "UPDATE accounts SET display_name = ? WHERE local_id = ?"), displayName, localID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountDisabled enables or disables an account
func SetAccountDisabled(db *DB, localID string, disabled bool) error {
	_, err := db.Exec(rebind(db, "UPDATE accounts SET disabled = ? WHERE local_id = ?"), disabled, localID)
	return err
}

func queryAccount(db *DB, where string, arg interface{}) (Account, error) {
	var a Account
	err := db.QueryRow(rebind(db,
		"SELECT local_id, email, password_hash, display_name, provider, disabled, created FROM accounts WHERE "+where), arg).
		Scan(&a.LocalID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.Provider, &a.Disabled, &a.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (models.Task, error) {
	var item models.Task
	var dueDate, status string
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &dueDate, &status); err != nil {
		return models.Task{}, err
	}

	date, err := models.ParseDate(dueDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %d: %w", item.ID, err)
	}
	item.DueDate = date
	item.Status = models.Status(status)
	return item, nil
}

// buildTaskFilter builds the where clause for an owner and optional search
// term. Values are always bound, never inlined.
func buildTaskFilter(owner, search string) (string, []interface{}) {
	where := "owner = ?"
	args := []interface{}{owner}

	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where += " AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"
		args = append(args, like, like)
	}

	utils.Log("Built where clause: %s", where)
	return where, args
}
