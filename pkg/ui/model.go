package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/pkg/config"
	"taskdeck/pkg/keymaps"
	"taskdeck/pkg/models"
	"taskdeck/pkg/session"
	"taskdeck/pkg/tasksync"
)

// InputMode represents the current input mode
type InputMode int

const (
	LoadingMode InputMode = iota // Waiting for the session to be restored
	LoginMode
	NormalMode
	AddMode
	EditMode
	DeleteConfirmMode
	SearchMode
	DetailsMode
	HelpViewMode
)

// Auth is the part of the session gate the UI drives
type Auth interface {
	State() session.State
	SignInWithEmail(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, displayName string) error
	SignInWithFederated(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// SessionMsg is delivered when the store has followed a session change
type SessionMsg struct {
	State session.State
	Err   error
}

// Notifier adapts send (usually tea.Program.Send) to the callback taken by
// tasksync.Store.Follow.
func Notifier(send func(tea.Msg)) func(session.State, error) {
	return func(st session.State, err error) {
		send(SessionMsg{State: st, Err: err})
	}
}

type authDoneMsg struct{ err error }

type taskOpMsg struct {
	verb string
	task models.Task
	err  error
}

type reloadedMsg struct{ err error }

// Model represents the application state
type Model struct {
	ctx           context.Context
	auth          Auth
	store         *tasksync.Store
	table         table.Model
	rows          []models.Task
	width, height int
	err           error
	notice        string
	busy          bool
	user          string

	// Configuration
	config config.Config
	styles config.Styles
	keyMap keymaps.KeyMap

	// Login state
	emailInput    textinput.Model
	passwordInput textinput.Model
	nameInput     textinput.Model
	signingUp     bool
	loginFocus    int

	// Form state
	mode         InputMode
	helpReturn   InputMode
	titleInput   textinput.Model
	descInput    textinput.Model
	dueDateInput textinput.Model
	statusInput  textinput.Model
	searchInput  textinput.Model
	activeInput  int
	searchTerm   string

	// Edit/delete/details target
	editingID int64

	// Sorting state
	sortBy    SortBy
	sortOrder SortOrder
}

// NewModel creates a UI model on top of an auth gate and a task store
func NewModel(ctx context.Context, auth Auth, store *tasksync.Store, cfg config.Config, styles config.Styles) Model {
	columns := []table.Column{
		{Title: "Status", Width: 13},
		{Title: "Title", Width: 44},
		{Title: "Due", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.BorderColor)).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(styles.SelectedTextColor)).
		Background(lipgloss.Color(styles.SelectedBgColor)).
		Bold(true)
	t.SetStyles(s)

	emailInput := textinput.New()
	emailInput.Placeholder = "you@example.com"
	emailInput.Width = 40
	emailInput.Focus()

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'
	passwordInput.Width = 40

	nameInput := textinput.New()
	nameInput.Placeholder = "Display name"
	nameInput.Width = 40

	titleInput := textinput.New()
	titleInput.Placeholder = "Title (at least 3 characters)"
	titleInput.CharLimit = 120
	titleInput.Width = 40

	descInput := textinput.New()
	descInput.Placeholder = "Description (at least 10 characters)"
	descInput.Width = 40

	dueDateInput := textinput.New()
	dueDateInput.Placeholder = "YYYY-MM-DD"
	dueDateInput.CharLimit = 10
	dueDateInput.Width = 40

	statusInput := textinput.New()
	statusInput.Placeholder = "PENDING, IN_PROGRESS or COMPLETED"
	statusInput.Width = 40

	searchInput := textinput.New()
	searchInput.Placeholder = "Search title or description"
	searchInput.Width = 40

	m := Model{
		ctx:           ctx,
		auth:          auth,
		store:         store,
		table:         t,
		config:        cfg,
		styles:        styles,
		keyMap:        keymaps.BuildKeyMap(cfg.KeyMap),
		emailInput:    emailInput,
		passwordInput: passwordInput,
		nameInput:     nameInput,
		titleInput:    titleInput,
		descInput:     descInput,
		dueDateInput:  dueDateInput,
		statusInput:   statusInput,
		searchInput:   searchInput,
		mode:          LoadingMode,
		sortBy:        SortByNone,
		sortOrder:     SortAsc,
	}

	m.applySession(auth.State())
	m.refreshTable()
	return m
}

// Init initializes the model (required by Bubble Tea Model interface)
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// resetInputs clears the task form
func (m *Model) resetInputs() {
	m.titleInput.Reset()
	m.descInput.Reset()
	m.dueDateInput.SetValue(models.Today().String())
	m.statusInput.SetValue(string(models.StatusPending))

	m.activeInput = 0
	m.focusInput()
}

// resetLogin clears the login form, keeping the email when asked
func (m *Model) resetLogin(keepEmail bool) {
	if !keepEmail {
		m.emailInput.Reset()
	}
	m.passwordInput.Reset()
	m.nameInput.Reset()
	m.loginFocus = 0
	m.focusLogin()
}

// applySession moves between the login screen and the task list
func (m *Model) applySession(st session.State) {
	switch st.Status {
	case session.StatusAuthenticated:
		if st.Principal != nil {
			m.user = st.Principal.Email()
		}
		if m.mode == LoadingMode || m.mode == LoginMode {
			m.mode = NormalMode
			m.resetLogin(false)
		}
	case session.StatusAnonymous:
		m.user = ""
		m.searchTerm = ""
		m.editingID = 0
		if m.mode != LoginMode {
			m.mode = LoginMode
			m.resetLogin(true)
		}
	default:
		m.mode = LoadingMode
	}
}
