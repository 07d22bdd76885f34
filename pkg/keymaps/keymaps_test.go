package keymaps

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func TestBuildKeyMapDefaults(t *testing.T) {
	km := BuildKeyMap(nil)

	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, km.AddTask) {
		t.Error("a should add a task")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.QuitApp) {
		t.Error("ctrl+c should quit")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")}, km.CycleStatus) {
		t.Error("space should cycle the status")
	}
	if got := km.SearchTasks.Help().Key; got != "/" {
		t.Errorf("search help key = %q", got)
	}
}

func TestBuildKeyMapOverridesIgnoreCase(t *testing.T) {
	km := BuildKeyMap(map[string]string{"addtask": "n, +", "DeleteTask": ""})

	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")}, km.AddTask) {
		t.Error("override + not bound")
	}
	if key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, km.AddTask) {
		t.Error("default key still bound after override")
	}
	if km.AddTask.Help().Key != "n" {
		t.Errorf("help key = %q", km.AddTask.Help().Key)
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}, km.DeleteTask) {
		t.Error("empty override must keep the default")
	}
}

func TestDefaultKeyMappingsCoverEveryAction(t *testing.T) {
	defaults := GetDefaultKeyMappings()
	if len(defaults) != len(KeyDefinitions) {
		t.Fatalf("got %d mappings for %d actions", len(defaults), len(KeyDefinitions))
	}
	for action, def := range KeyDefinitions {
		if defaults[action] != def.DefaultKey {
			t.Errorf("%s = %q, want %q", action, defaults[action], def.DefaultKey)
		}
	}
}
