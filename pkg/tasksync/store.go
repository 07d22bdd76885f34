// Package tasksync keeps the local task collection consistent with the
// remote task resource.
//
// Local state only changes after the server has confirmed an operation, so
// a failed call never needs a rollback. Each confirmed result is applied in
// one locked step: readers see the collection either before or after an
// operation, never halfway.
package tasksync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskdeck/pkg/models"
	"taskdeck/pkg/session"
	"taskdeck/pkg/utils"
)

var (
	// ErrTaskNotFound is returned for ids that are not in the collection
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotSelected is returned when update or delete targets a task that
	// is not the current selection
	ErrNotSelected = errors.New("task is not selected")
	// ErrOperationInFlight is returned when another update or delete for
	// the same task has not finished yet
	ErrOperationInFlight = errors.New("another operation on this task is still running")
	// ErrMissingID is returned when the server confirms a create without an id
	ErrMissingID = errors.New("server returned a task without an id")
	// ErrDuplicateID is returned when a created task reuses an id that is
	// already in the collection
	ErrDuplicateID = errors.New("server returned an id that is already in use")
	// ErrInvalidStatus is returned when the server sends a task whose status
	// is not PENDING, IN_PROGRESS or COMPLETED
	ErrInvalidStatus = errors.New("server returned a task with an unknown status")
	// ErrIDMismatch is returned when an update is answered with another task
	ErrIDMismatch = errors.New("server answered with a different task id")
	// ErrStaleSession is returned when the session changed while the request
	// was running; the result was not applied
	ErrStaleSession = errors.New("session changed before the server answered")
)

// Remote is the task resource
type Remote interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, draft models.Draft) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, draft models.Draft) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Session supplies the signed-in principal
type Session interface {
	Principal() (session.Principal, error)
}

// Store owns the local task collection
type Store struct {
	session Session
	remote  Remote

	mu       sync.Mutex
	tasks    []models.Task
	selected int64
	inflight map[int64]bool
	// generation changes on every Reset so results that belong to a
	// previous principal can be recognised
	generation uint64
	owner      string
}

// NewStore creates an empty store
func NewStore(sess Session, remote Remote) *Store {
	return &Store{
		session:  sess,
		remote:   remote,
		tasks:    []models.Task{},
		inflight: make(map[int64]bool),
	}
}

// Tasks returns a copy of the collection in insertion order
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// View returns the tasks matching query
func (s *Store) View(query string) []models.Task {
	return Filter(s.Tasks(), query)
}

// Get returns the task with id
func (s *Store) Get(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// Select makes id the target of the next update or delete, replacing any
// previous selection.
func (s *Store) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return notFound(id)
	}
	s.selected = id
	return nil
}

// Selected returns the selected task, if any
func (s *Store) Selected() (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == 0 {
		return models.Task{}, false
	}
	i := s.indexOf(s.selected)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// ClearSelection cancels the current selection
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = 0
	s.mu.Unlock()
}

// Owner returns the uid whose tasks were last loaded
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Reset drops the collection and selection, e.g. after sign-out
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = []models.Task{}
	s.selected = 0
	s.owner = ""
	s.generation++
}

// Load replaces the collection with the server's copy. On failure the
// previous collection is kept.
func (s *Store) Load(ctx context.Context) error {
	p, err := s.session.Principal()
	if err != nil {
		return err
	}
	gen := s.currentGeneration()

	tasks, err := s.remote.ListTasks(ctx)
	if err != nil {
		utils.Error("Loading tasks failed: %v", err)
		return fmt.Errorf("loading tasks: %w", err)
	}
	seen := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if err := checkServerTask(t); err != nil {
			utils.Error("Rejecting task list: %v", err)
			return fmt.Errorf("loading tasks: %w", err)
		}
		if seen[t.ID] {
			utils.Error("Rejecting task list: id %d appears twice", t.ID)
			return fmt.Errorf("loading tasks: task %d: %w", t.ID, ErrDuplicateID)
		}
		seen[t.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		utils.Log("Discarding task list loaded for a previous session")
		return nil
	}
	s.tasks = append([]models.Task{}, tasks...)
	s.owner = p.UID()
	if s.selected != 0 && s.indexOf(s.selected) < 0 {
		s.selected = 0
	}
	utils.Log("Loaded %d tasks", len(s.tasks))
	return nil
}

// Create validates draft, stores it remotely and appends the server's
// version to the collection.
func (s *Store) Create(ctx context.Context, draft models.Draft) (models.Task, error) {
	if _, err := s.session.Principal(); err != nil {
		return models.Task{}, err
	}
	if err := draft.Validate(); err != nil {
		return models.Task{}, err
	}
	gen := s.currentGeneration()

	created, err := s.remote.CreateTask(ctx, draft)
	if err != nil {
		utils.Error("Creating task failed: %v", err)
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}

	if created.ID == 0 {
		utils.Error("Create returned a task without an id")
		return models.Task{}, ErrMissingID
	}
	if err := checkServerTask(created); err != nil {
		utils.Error("Rejecting created task: %v", err)
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		utils.Log("Discarding created task %d from a previous session", created.ID)
		return models.Task{}, ErrStaleSession
	}
	if s.indexOf(created.ID) >= 0 {
		utils.Error("Create returned id %d which is already present", created.ID)
		return models.Task{}, ErrDuplicateID
	}
	s.tasks = append(s.tasks, created)
	utils.Log("Added task: %d", created.ID)
	return created, nil
}

// Update sends draft for the selected task id and replaces the local entry
// with the server's response. The selection is cleared on success.
func (s *Store) Update(ctx context.Context, id int64, draft models.Draft) (models.Task, error) {
	if _, err := s.session.Principal(); err != nil {
		return models.Task{}, err
	}
	if err := s.checkTarget(id); err != nil {
		return models.Task{}, err
	}
	if err := draft.Validate(); err != nil {
		return models.Task{}, err
	}
	gen, err := s.acquire(id)
	if err != nil {
		return models.Task{}, err
	}
	defer s.release(id)

	updated, err := s.remote.UpdateTask(ctx, id, draft)
	if err != nil {
		utils.Error("Updating task %d failed: %v", id, err)
		return models.Task{}, fmt.Errorf("updating task %d: %w", id, err)
	}
	if updated.ID == 0 {
		updated.ID = id
	}
	if updated.ID != id {
		utils.Error("Update of task %d was answered with task %d", id, updated.ID)
		return models.Task{}, fmt.Errorf("updating task %d: %w (got %d)", id, ErrIDMismatch, updated.ID)
	}
	if err := checkServerTask(updated); err != nil {
		utils.Error("Rejecting updated task: %v", err)
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		utils.Log("Discarding update of task %d from a previous session", id)
		return models.Task{}, ErrStaleSession
	}
	if i := s.indexOf(id); i >= 0 {
		s.tasks[i] = updated
	} else {
		utils.Log("Task %d left the collection before its update finished", id)
	}
	if s.selected == id {
		s.selected = 0
	}
	utils.Log("Updated task: %d", id)
	return updated, nil
}

// Delete removes the selected task id remotely and then locally. The
// selection is cleared on success.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.session.Principal(); err != nil {
		return err
	}
	if err := s.checkTarget(id); err != nil {
		return err
	}
	gen, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer s.release(id)

	if err := s.remote.DeleteTask(ctx, id); err != nil {
		utils.Error("Deleting task %d failed: %v", id, err)
		return fmt.Errorf("deleting task %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		utils.Log("Discarding delete of task %d from a previous session", id)
		return nil
	}
	if i := s.indexOf(id); i >= 0 {
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	}
	if s.selected == id {
		s.selected = 0
	}
	utils.Log("Deleted task: %d", id)
	return nil
}

func (s *Store) checkTarget(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return notFound(id)
	}
	if s.selected != id {
		return &models.ValidationError{
			Fields: []models.FieldError{{Field: "id", Message: fmt.Sprintf("task %d is not selected", id)}},
			Err:    ErrNotSelected,
		}
	}
	return nil
}

func (s *Store) acquire(id int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[id] {
		return 0, ErrOperationInFlight
	}
	s.inflight[id] = true
	return s.generation, nil
}

func (s *Store) release(id int64) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Store) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// indexOf must be called with mu held
func (s *Store) indexOf(id int64) int {
	if id == 0 {
		return -1
	}
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// checkServerTask rejects tasks that must not enter the collection
func checkServerTask(t models.Task) error {
	if !t.Status.IsValid() {
		return fmt.Errorf("task %d has status %q: %w", t.ID, t.Status, ErrInvalidStatus)
	}
	return nil
}

func notFound(id int64) error {
	return &models.ValidationError{
		Fields: []models.FieldError{{Field: "id", Message: fmt.Sprintf("no task with id %d", id)}},
		Err:    ErrTaskNotFound,
	}
}
