package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI based on the current mode
func (m Model) View() string {
	var sb strings.Builder

	switch m.mode {
	case LoadingMode:
		sb.WriteString(m.titleBar(" Taskdeck ", m.styles.AccentColor))
		sb.WriteString("\n\nRestoring session...")

	case LoginMode:
		title := " Sign in "
		if m.signingUp {
			title = " Create account "
		}
		sb.WriteString(m.titleBar(title, m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderLogin())

	case NormalMode:
		sb.WriteString(m.titleBar(" Taskdeck ", m.styles.AccentColor))
		if m.user != "" {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.NormalTextColor)).Render("  " + m.user))
		}
		sb.WriteString("\n\n")
		if len(m.rows) == 0 {
			sb.WriteString(m.emptyMessage())
		} else {
			sb.WriteString(m.table.View())
		}
		sb.WriteString("\n")

		viewInfo := fmt.Sprintf("Showing %d of %d tasks", len(m.rows), len(m.store.Tasks()))
		if m.searchTerm != "" {
			viewInfo += fmt.Sprintf(" (search filter: %s)", m.searchTerm)
		}
		if m.sortBy != SortByNone || m.sortOrder != SortAsc {
			viewInfo += fmt.Sprintf(" | sorted by %s (%s)", m.sortBy, m.sortOrder)
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.NormalTextColor)).Render(viewInfo))
		sb.WriteString("\n")

	case AddMode:
		sb.WriteString(m.titleBar(" Add New Task ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case EditMode:
		sb.WriteString(m.titleBar(" Edit Task ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case DeleteConfirmMode:
		sb.WriteString(m.titleBar(" Delete Task ", m.styles.ErrorColor))
		sb.WriteString("\n\n")

		if task, ok := m.store.Get(m.editingID); ok {
			sb.WriteString("Are you sure you want to delete this task?\n\n")
			sb.WriteString(fmt.Sprintf("Title: %s\n", task.Title))
			sb.WriteString(fmt.Sprintf("Description: %s\n", task.Description))
			sb.WriteString("\n")
			sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Press Y to confirm, N to cancel"))
		}

	case SearchMode:
		sb.WriteString(m.titleBar(" Search Tasks ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.searchInput.View())
		sb.WriteString("\n\n")
		sb.WriteString(m.table.View())

	case DetailsMode:
		sb.WriteString(m.titleBar(" Task Details ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		if task, ok := m.store.Get(m.editingID); ok {
			label := lipgloss.NewStyle().Bold(true).Width(13)
			sb.WriteString(label.Render("Title:") + task.Title + "\n")
			sb.WriteString(label.Render("Description:") + task.Description + "\n")
			sb.WriteString(label.Render("Due:") + task.DueDate.String() + "\n")
			sb.WriteString(label.Render("Status:") + statusLabel(task.Status, m.styles) + "\n")
		}

	case HelpViewMode:
		sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Available Commands"))
		sb.WriteString("\n\n")

		keyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.styles.AccentColor)).
			Bold(true)
		descStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.styles.NormalTextColor))

		addCommand := func(binding key.Binding) {
			sb.WriteString(fmt.Sprintf("%s: %s\n",
				descStyle.Render(binding.Help().Desc),
				keyStyle.Render(binding.Help().Key)))
		}

		for _, column := range m.keyMap.FullHelp() {
			for _, binding := range column {
				addCommand(binding)
			}
		}

		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Forms"))
		sb.WriteString("\n\n")
		addCommand(m.keyMap.NextField)
		addCommand(m.keyMap.PrevField)
		addCommand(m.keyMap.Submit)
		addCommand(m.keyMap.Cancel)
	}

	if m.err != nil {
		sb.WriteString("\n\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.ErrorColor)).Render("Error: " + errorText(m.err)))
	} else if m.busy {
		sb.WriteString("\n\nWorking...")
	} else if m.notice != "" && m.mode == NormalMode {
		sb.WriteString("\n\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.AccentColor)).Render(m.notice))
	}

	sb.WriteString("\n")
	sb.WriteString(m.helpBar())

	return sb.String()
}

func (m Model) titleBar(text, background string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.styles.SelectedTextColor)).
		Background(lipgloss.Color(background)).
		Padding(0, 1).
		Render(text)
}

func (m Model) emptyMessage() string {
	if m.searchTerm != "" {
		return fmt.Sprintf("No tasks match %q.", m.searchTerm)
	}
	return fmt.Sprintf("No tasks yet. Press %s to add one.", m.keyMap.AddTask.Help().Key)
}

// helpBar renders a status bar with available actions
func (m Model) helpBar() string {
	var actions []string

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.AccentColor)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.NormalTextColor))
	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.BorderColor))

	separator := separatorStyle.Render(" • ")

	addAction := func(k, desc string) {
		actions = append(actions, fmt.Sprintf("%s %s", keyStyle.Render(k), descStyle.Render(desc)))
	}
	addBinding := func(b key.Binding, desc string) {
		addAction(b.Help().Key, desc)
	}

	switch m.mode {
	case LoadingMode:
		addBinding(m.keyMap.QuitApp, "quit")

	case LoginMode:
		addBinding(m.keyMap.NextField, "next field")
		addBinding(m.keyMap.Submit, "submit")
		if m.signingUp {
			addBinding(m.keyMap.ToggleSignUp, "sign in instead")
		} else {
			addBinding(m.keyMap.ToggleSignUp, "create account")
		}
		if m.config.Identity.FederatedTokenCommand != "" {
			addBinding(m.keyMap.FederatedSignIn, "federated")
		}
		addBinding(m.keyMap.Cancel, "quit")

	case NormalMode:
		addBinding(m.keyMap.AddTask, "add")
		addBinding(m.keyMap.EditTask, "edit")
		addBinding(m.keyMap.DeleteTask, "del")
		addBinding(m.keyMap.CycleStatus, "status")
		addBinding(m.keyMap.SearchTasks, "search")
		addAction(m.keyMap.ToggleSortBy.Help().Key+"/"+m.keyMap.ToggleSortOrder.Help().Key, "sort/ord")
		addBinding(m.keyMap.Reload, "reload")
		addBinding(m.keyMap.SignOut, "sign out")
		addBinding(m.keyMap.ShowHelp, "help")
		addBinding(m.keyMap.QuitApp, "quit")

	case AddMode, EditMode:
		addBinding(m.keyMap.NextField, "next field")
		addBinding(m.keyMap.Submit, "next/save")
		addBinding(m.keyMap.Cancel, "cancel")

	case DeleteConfirmMode:
		addAction("y", "confirm")
		addAction("n", "cancel")

	case SearchMode:
		addAction("enter", "keep filter")
		addAction("esc", "clear")

	case DetailsMode:
		addBinding(m.keyMap.EditTask, "edit")
		addBinding(m.keyMap.Cancel, "back")

	case HelpViewMode:
		addBinding(m.keyMap.Cancel, "back")
	}

	return strings.Join(actions, separator)
}

// renderForm renders the input form for adding/editing tasks
func (m Model) renderForm() string {
	var sb strings.Builder

	sb.WriteString("Title:\n")
	sb.WriteString(m.titleInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Description:\n")
	sb.WriteString(m.descInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Due Date (YYYY-MM-DD):\n")
	sb.WriteString(m.dueDateInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Status:\n")
	sb.WriteString(m.statusInput.View())

	return sb.String()
}

func (m Model) renderLogin() string {
	var sb strings.Builder

	sb.WriteString("Email:\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Password:\n")
	sb.WriteString(m.passwordInput.View())

	if m.signingUp {
		sb.WriteString("\n\n")
		sb.WriteString("Display name:\n")
		sb.WriteString(m.nameInput.View())
	}
	return sb.String()
}
