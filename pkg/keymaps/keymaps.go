package keymaps

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyDefinition struct {
	DefaultKey string
	Help       string
}

var KeyDefinitions = map[string]KeyDefinition{
	"ShowHelp":        {"?", "show/hide commands"},
	"QuitApp":         {"q,ctrl+c", "quit"},
	"AddTask":         {"a", "add task"},
	"EditTask":        {"e", "edit task"},
	"DeleteTask":      {"d", "delete task"},
	"ViewTask":        {"enter", "show task details"},
	"CycleStatus":     {"space", "cycle status"},
	"SearchTasks":     {"/,ctrl+f", "search tasks"},
	"Reload":          {"r", "reload tasks from the server"},
	"SignOut":         {"ctrl+x", "sign out"},
	"ToggleSortBy":    {"s", "cycle sort by"},
	"ToggleSortOrder": {"o", "toggle sort order"},
	"NextField":       {"tab,down", "next field"},
	"PrevField":       {"shift+tab,up", "previous field"},
	"Submit":          {"enter", "submit"},
	"Cancel":          {"esc", "cancel"},
	"ToggleSignUp":    {"ctrl+n", "switch between sign-in and sign-up"},
	"FederatedSignIn": {"ctrl+g", "sign in with federated provider"},
}

type KeyMap struct {
	ShowHelp        key.Binding
	QuitApp         key.Binding
	AddTask         key.Binding
	EditTask        key.Binding
	DeleteTask      key.Binding
	ViewTask        key.Binding
	CycleStatus     key.Binding
	SearchTasks     key.Binding
	Reload          key.Binding
	SignOut         key.Binding
	ToggleSortBy    key.Binding
	ToggleSortOrder key.Binding
	NextField       key.Binding
	PrevField       key.Binding
	Submit          key.Binding
	Cancel          key.Binding
	ToggleSignUp    key.Binding
	FederatedSignIn key.Binding
}

// BuildKeyMap applies configOverrides to the default bindings. Action names
// are matched case-insensitively since viper lowercases map keys.
func BuildKeyMap(configOverrides map[string]string) KeyMap {
	overrides := make(map[string]string, len(configOverrides))
	for action, keys := range configOverrides {
		overrides[strings.ToLower(action)] = keys
	}

	km := KeyMap{}
	for action, def := range KeyDefinitions {
		keyStr := def.DefaultKey
		if override, exists := overrides[strings.ToLower(action)]; exists && override != "" {
			keyStr = override
		}

		binding := parseKeyBinding(keyStr, def.DefaultKey, def.Help)
		switch action {
		case "ShowHelp":
			km.ShowHelp = binding
		case "QuitApp":
			km.QuitApp = binding
		case "AddTask":
			km.AddTask = binding
		case "EditTask":
			km.EditTask = binding
		case "DeleteTask":
			km.DeleteTask = binding
		case "ViewTask":
			km.ViewTask = binding
		case "CycleStatus":
			km.CycleStatus = binding
		case "SearchTasks":
			km.SearchTasks = binding
		case "Reload":
			km.Reload = binding
		case "SignOut":
			km.SignOut = binding
		case "ToggleSortBy":
			km.ToggleSortBy = binding
		case "ToggleSortOrder":
			km.ToggleSortOrder = binding
		case "NextField":
			km.NextField = binding
		case "PrevField":
			km.PrevField = binding
		case "Submit":
			km.Submit = binding
		case "Cancel":
			km.Cancel = binding
		case "ToggleSignUp":
			km.ToggleSignUp = binding
		case "FederatedSignIn":
			km.FederatedSignIn = binding
		}
	}
	return km
}

func parseKeyBinding(keyStr, defaultKey, helpText string) key.Binding {
	if strings.TrimSpace(keyStr) == "" {
		keyStr = defaultKey
	}

	// Handle multiple keys separated by commas
	names := strings.Split(keyStr, ",")
	keys := make([]string, len(names))
	for i, k := range names {
		names[i] = strings.TrimSpace(k)
		keys[i] = names[i]
		// bubbletea reports the space bar as " "
		if names[i] == "space" {
			keys[i] = " "
		}
	}

	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(names[0], helpText),
	)
}

// GetDefaultKeyMappings returns the default key mappings for configuration
func GetDefaultKeyMappings() map[string]string {
	keyMappings := make(map[string]string)
	for action, def := range KeyDefinitions {
		keyMappings[action] = def.DefaultKey
	}
	return keyMappings
}

// ShortHelp lists the bindings shown in the task list footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddTask, k.EditTask, k.DeleteTask, k.SearchTasks, k.ShowHelp, k.QuitApp}
}

// FullHelp lists every task list binding in columns
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.AddTask, k.EditTask, k.DeleteTask, k.ViewTask, k.CycleStatus},
		{k.SearchTasks, k.ToggleSortBy, k.ToggleSortOrder, k.Reload},
		{k.SignOut, k.ShowHelp, k.QuitApp},
	}
}
