package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/pkg/models"
	"taskdeck/pkg/utils"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case SessionMsg:
		m.busy = false
		m.applySession(msg.State)
		if msg.Err != nil {
			m.err = msg.Err
		}
		m.refreshTable()
		return m, nil

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.passwordInput.Reset()
		}
		return m, nil

	case reloadedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.notice = fmt.Sprintf("Loaded %d tasks", len(m.store.Tasks()))
		}
		m.refreshTable()
		return m, nil

	case taskOpMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.store.ClearSelection()
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("%s task %s", msg.verb, describe(msg.task))
		if m.mode == AddMode || m.mode == EditMode {
			m.mode = NormalMode
			m.editingID = 0
		}
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		switch m.mode {
		case LoadingMode:
			if key.Matches(msg, m.keyMap.QuitApp) {
				return m, tea.Quit
			}

		case LoginMode:
			switch {
			case key.Matches(msg, m.keyMap.Cancel):
				return m, tea.Quit

			case key.Matches(msg, m.keyMap.ToggleSignUp):
				m.signingUp = !m.signingUp
				m.err = nil
				if m.loginFocus >= m.loginFields() {
					m.loginFocus = 0
				}
				m.focusLogin()
				return m, nil

			case key.Matches(msg, m.keyMap.FederatedSignIn):
				if m.busy {
					return m, nil
				}
				m.busy = true
				m.err = nil
				return m, federatedCmd(m.ctx, m.auth)

			case key.Matches(msg, m.keyMap.NextField):
				m.loginFocus = (m.loginFocus + 1) % m.loginFields()
				m.focusLogin()
				return m, nil

			case key.Matches(msg, m.keyMap.PrevField):
				m.loginFocus = (m.loginFocus + m.loginFields() - 1) % m.loginFields()
				m.focusLogin()
				return m, nil

			case key.Matches(msg, m.keyMap.Submit):
				if m.busy {
					return m, nil
				}
				if m.loginFocus < m.loginFields()-1 {
					m.loginFocus++
					m.focusLogin()
					return m, nil
				}
				return m, m.submitLogin()
			}

			switch m.loginFocus {
			case 0:
				m.emailInput, cmd = m.emailInput.Update(msg)
			case 1:
				m.passwordInput, cmd = m.passwordInput.Update(msg)
			case 2:
				m.nameInput, cmd = m.nameInput.Update(msg)
			}
			return m, cmd

		case NormalMode:
			switch {
			case key.Matches(msg, m.keyMap.ShowHelp):
				m.helpReturn = NormalMode
				m.mode = HelpViewMode
				return m, nil

			case key.Matches(msg, m.keyMap.QuitApp):
				return m, tea.Quit

			case key.Matches(msg, m.keyMap.AddTask):
				m.mode = AddMode
				m.err = nil
				m.resetInputs()
				return m, nil

			case key.Matches(msg, m.keyMap.EditTask):
				if task, ok := m.currentTask(); ok {
					m.mode = EditMode
					m.err = nil
					m.editingID = task.ID
					m.fillForm(task)
				}
				return m, nil

			case key.Matches(msg, m.keyMap.DeleteTask):
				if task, ok := m.currentTask(); ok {
					m.mode = DeleteConfirmMode
					m.editingID = task.ID
				}
				return m, nil

			case key.Matches(msg, m.keyMap.ViewTask):
				if task, ok := m.currentTask(); ok {
					m.mode = DetailsMode
					m.editingID = task.ID
				}
				return m, nil

			case key.Matches(msg, m.keyMap.CycleStatus):
				if task, ok := m.currentTask(); ok && !m.busy {
					draft := task.Draft()
					draft.Status = task.Status.Next()
					m.busy = true
					utils.Log("Moving task %d to %s", task.ID, draft.Status)
					return m, updateTaskCmd(m.ctx, m.store, task.ID, draft, "Moved")
				}
				return m, nil

			case key.Matches(msg, m.keyMap.SearchTasks):
				m.mode = SearchMode
				m.searchInput.SetValue(m.searchTerm)
				m.searchInput.CursorEnd()
				m.searchInput.Focus()
				return m, nil

			case key.Matches(msg, m.keyMap.Reload):
				m.busy = true
				m.notice = ""
				return m, reloadCmd(m.ctx, m.store)

			case key.Matches(msg, m.keyMap.SignOut):
				m.busy = true
				return m, signOutCmd(m.ctx, m.auth)

			case key.Matches(msg, m.keyMap.ToggleSortBy):
				m.sortBy = (m.sortBy + 1) % sortByCount
				m.refreshTable()
				return m, nil

			case key.Matches(msg, m.keyMap.ToggleSortOrder):
				if m.sortOrder == SortAsc {
					m.sortOrder = SortDesc
				} else {
					m.sortOrder = SortAsc
				}
				m.refreshTable()
				return m, nil
			}

		case AddMode, EditMode:
			switch {
			case key.Matches(msg, m.keyMap.Cancel):
				m.mode = NormalMode
				m.editingID = 0
				m.err = nil
				m.resetInputs()
				return m, nil

			case key.Matches(msg, m.keyMap.NextField):
				m.focusNextInput()
				return m, nil

			case key.Matches(msg, m.keyMap.PrevField):
				m.focusPreviousInput()
				return m, nil

			case key.Matches(msg, m.keyMap.Submit):
				if m.busy {
					return m, nil
				}
				if m.activeInput == 3 { // Submit on enter from the last field
					return m, m.submitForm()
				}
				m.focusNextInput()
				return m, nil
			}

			switch m.activeInput {
			case 0:
				m.titleInput, cmd = m.titleInput.Update(msg)
			case 1:
				m.descInput, cmd = m.descInput.Update(msg)
			case 2:
				m.dueDateInput, cmd = m.dueDateInput.Update(msg)
			case 3:
				m.statusInput, cmd = m.statusInput.Update(msg)
			}
			return m, cmd

		case SearchMode:
			switch msg.String() {
			case "esc":
				m.mode = NormalMode
				m.searchTerm = ""
				m.searchInput.Blur()
				m.refreshTable()
				return m, nil

			case "enter":
				m.mode = NormalMode
				m.searchInput.Blur()
				utils.Log("Searching for: %s", m.searchTerm)
				return m, nil
			}

			// Filter as the user types
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.searchTerm = m.searchInput.Value()
			m.refreshTable()
			return m, cmd

		case DeleteConfirmMode:
			switch msg.String() {
			case "y", "Y":
				task, ok := m.store.Get(m.editingID)
				m.mode = NormalMode
				m.editingID = 0
				if !ok {
					return m, nil
				}
				utils.Log("Deleting task ID: %d", task.ID)
				m.busy = true
				return m, deleteTaskCmd(m.ctx, m.store, task)

			case "n", "N", "esc":
				m.mode = NormalMode
				m.editingID = 0
			}
			return m, nil

		case DetailsMode:
			switch {
			case key.Matches(msg, m.keyMap.EditTask):
				if task, ok := m.store.Get(m.editingID); ok {
					m.mode = EditMode
					m.fillForm(task)
				}
			case key.Matches(msg, m.keyMap.Cancel), key.Matches(msg, m.keyMap.ViewTask), key.Matches(msg, m.keyMap.QuitApp):
				m.mode = NormalMode
				m.editingID = 0
			}
			return m, nil

		case HelpViewMode:
			if key.Matches(msg, m.keyMap.Cancel) || key.Matches(msg, m.keyMap.ShowHelp) || key.Matches(msg, m.keyMap.QuitApp) {
				m.mode = m.helpReturn
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width - 4)
		m.table.SetHeight(msg.Height - 8)
	}

	// Only update table in normal mode
	if m.mode == NormalMode {
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// Selected returns the task under the cursor
func (m Model) Selected() (models.Task, bool) {
	return m.currentTask()
}
