package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/pkg/config"
	"taskdeck/pkg/models"
	"taskdeck/pkg/session"
	"taskdeck/pkg/tasksync"
	"taskdeck/pkg/utils"
)

// refreshTable rebuilds the rows from the store, the search term and the
// current ordering
func (m *Model) refreshTable() {
	m.rows = SortTasks(m.store.View(m.searchTerm), m.sortBy, m.sortOrder)

	tableRows := make([]table.Row, 0, len(m.rows))
	for _, task := range m.rows {
		tableRows = append(tableRows, table.Row{
			statusLabel(task.Status, m.styles),
			task.Title,
			task.DueDate.String(),
		})
	}
	m.table.SetRows(tableRows)
	if c := m.table.Cursor(); c >= len(tableRows) && len(tableRows) > 0 {
		m.table.SetCursor(len(tableRows) - 1)
	}
}

// currentTask returns the task under the cursor
func (m *Model) currentTask() (models.Task, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return models.Task{}, false
	}
	return m.rows[c], true
}

func statusLabel(s models.Status, styles config.Styles) string {
	color := styles.PendingColor
	mark := "[ ]"
	switch s {
	case models.StatusInProgress:
		color = styles.InProgressColor
		mark = "[~]"
	case models.StatusCompleted:
		color = styles.CompletedColor
		mark = "[x]"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(mark + " " + s.Label())
}

// focusNextInput cycles through the form inputs
func (m *Model) focusNextInput() {
	m.activeInput = (m.activeInput + 1) % 4
	m.focusInput()
}

// focusPreviousInput cycles backwards through the form inputs
func (m *Model) focusPreviousInput() {
	m.activeInput = (m.activeInput + 3) % 4
	m.focusInput()
}

func (m *Model) focusInput() {
	m.titleInput.Blur()
	m.descInput.Blur()
	m.dueDateInput.Blur()
	m.statusInput.Blur()
	switch m.activeInput {
	case 0:
		m.titleInput.Focus()
	case 1:
		m.descInput.Focus()
	case 2:
		m.dueDateInput.Focus()
	case 3:
		m.statusInput.Focus()
	}
}

func (m *Model) loginFields() int {
	if m.signingUp {
		return 3
	}
	return 2
}

func (m *Model) focusLogin() {
	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.nameInput.Blur()
	switch m.loginFocus {
	case 0:
		m.emailInput.Focus()
	case 1:
		m.passwordInput.Focus()
	case 2:
		m.nameInput.Focus()
	}
}

// fillForm loads task into the edit form
func (m *Model) fillForm(task models.Task) {
	m.resetInputs()
	m.titleInput.SetValue(task.Title)
	m.descInput.SetValue(task.Description)
	m.dueDateInput.SetValue(task.DueDate.String())
	m.statusInput.SetValue(string(task.Status))
}

// submitForm validates the form and returns the command that stores it.
// Invalid input keeps the form open with the problems shown.
func (m *Model) submitForm() tea.Cmd {
	draft, err := models.ParseDraft(
		m.titleInput.Value(),
		m.descInput.Value(),
		m.dueDateInput.Value(),
		m.statusInput.Value(),
	)
	if err != nil {
		m.err = err
		return nil
	}

	m.err = nil
	m.busy = true
	switch m.mode {
	case EditMode:
		return updateTaskCmd(m.ctx, m.store, m.editingID, draft, "Updated")
	default:
		return createTaskCmd(m.ctx, m.store, draft)
	}
}

// submitLogin returns the sign-in or sign-up command for the login form
func (m *Model) submitLogin() tea.Cmd {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	m.err = nil
	m.busy = true
	if m.signingUp {
		return signUpCmd(m.ctx, m.auth, email, password, strings.TrimSpace(m.nameInput.Value()))
	}
	return signInCmd(m.ctx, m.auth, email, password)
}

// errorText renders err for the status line
func errorText(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var ierr *session.IdentityError
	if errors.As(err, &ierr) {
		return ierr.Message()
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return "You are signed out. Sign in to continue."
	}
	return err.Error()
}

func describe(task models.Task) string {
	return fmt.Sprintf("%q", task.Title)
}

func reloadCmd(ctx context.Context, store *tasksync.Store) tea.Cmd {
	return func() tea.Msg {
		return reloadedMsg{err: store.Load(ctx)}
	}
}

func createTaskCmd(ctx context.Context, store *tasksync.Store, draft models.Draft) tea.Cmd {
	return func() tea.Msg {
		task, err := store.Create(ctx, draft)
		return taskOpMsg{verb: "Added", task: task, err: err}
	}
}

// updateTaskCmd selects id and sends draft for it
func updateTaskCmd(ctx context.Context, store *tasksync.Store, id int64, draft models.Draft, verb string) tea.Cmd {
	return func() tea.Msg {
		if err := store.Select(id); err != nil {
			return taskOpMsg{verb: verb, err: err}
		}
		task, err := store.Update(ctx, id, draft)
		return taskOpMsg{verb: verb, task: task, err: err}
	}
}

func deleteTaskCmd(ctx context.Context, store *tasksync.Store, task models.Task) tea.Cmd {
	return func() tea.Msg {
		if err := store.Select(task.ID); err != nil {
			return taskOpMsg{verb: "Deleted", task: task, err: err}
		}
		return taskOpMsg{verb: "Deleted", task: task, err: store.Delete(ctx, task.ID)}
	}
}

func signInCmd(ctx context.Context, auth Auth, email, password string) tea.Cmd {
	return func() tea.Msg {
		utils.Log("Signing in as %s", email)
		return authDoneMsg{err: auth.SignInWithEmail(ctx, email, password)}
	}
}

func signUpCmd(ctx context.Context, auth Auth, email, password, name string) tea.Cmd {
	return func() tea.Msg {
		utils.Log("Signing up as %s", email)
		return authDoneMsg{err: auth.SignUp(ctx, email, password, name)}
	}
}

func federatedCmd(ctx context.Context, auth Auth) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: auth.SignInWithFederated(ctx)}
	}
}

func signOutCmd(ctx context.Context, auth Auth) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: auth.SignOut(ctx)}
	}
}
