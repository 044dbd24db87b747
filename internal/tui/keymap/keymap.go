// Package keymap provides the key bindings of the question UI. Bindings are
// declared per input mode and looked up by the model's update loop.
package keymap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Mode represents the current input mode of the TUI.
type Mode string

const (
	ModeQuestion Mode = "question" // Browsing and selecting options
	ModeInput    Mode = "input"    // Typing custom text or a note
	ModeReview   Mode = "review"   // Reviewing answers before submit
)

// Command represents a named action that can be triggered by a key binding.
type Command string

// Question mode commands
const (
	CmdMoveUp         Command = "move_up"
	CmdMoveDown       Command = "move_down"
	CmdSelect         Command = "select"
	CmdConfirm        Command = "confirm"
	CmdCustom         Command = "custom"
	CmdElaborate      Command = "elaborate"
	CmdNextQuestion   Command = "next_question"
	CmdPrevQuestion   Command = "prev_question"
	CmdReview         Command = "review"
	CmdToggleHelp     Command = "toggle_help"
	CmdQuit           Command = "quit"
	CmdForceQuit      Command = "force_quit"
	CmdJumpToQuestion Command = "jump_to_question" // 1-9 keys in review
	CmdEditQuestion   Command = "edit_question"
	CmdSubmit         Command = "submit"
	CmdBack           Command = "back"
)

// Input mode commands
const (
	CmdSubmitInput Command = "submit_input"
	CmdCancelInput Command = "cancel_input"
)

// Modifier represents keyboard modifiers.
type Modifier uint8

const (
	ModNone Modifier = 0
	ModAlt  Modifier = 1 << iota
)

// String returns a human-readable representation of modifiers.
func (m Modifier) String() string {
	if m&ModAlt != 0 {
		return "alt+"
	}
	return ""
}

// KeyBinding represents a single key binding.
type KeyBinding struct {
	// KeyType is the key for this binding. Rune keys use tea.KeyRunes and set Rune.
	KeyType tea.KeyType

	// Rune is the character for rune-based keys.
	Rune rune

	Modifiers Modifier

	Command Command

	// Description is shown in the help bar.
	Description string

	// Category groups related bindings in the help view.
	Category string
}

// Matches checks if a tea.KeyMsg matches this binding.
func (kb KeyBinding) Matches(msg tea.KeyMsg) bool {
	wantAlt := kb.Modifiers&ModAlt != 0
	if msg.Alt != wantAlt {
		return false
	}

	if kb.KeyType != tea.KeyRunes {
		return msg.Type == kb.KeyType
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return false
	}
	return msg.Runes[0] == kb.Rune
}

// String returns a human-readable representation of the key binding.
func (kb KeyBinding) String() string {
	prefix := kb.Modifiers.String()

	switch {
	case kb.KeyType == tea.KeySpace:
		return prefix + "space"
	case kb.KeyType != tea.KeyRunes:
		return prefix + kb.KeyType.String()
	default:
		return prefix + string(kb.Rune)
	}
}

// ModeBindings holds all key bindings for a specific mode.
type ModeBindings struct {
	Mode     Mode
	Bindings []KeyBinding
}

// GetBinding looks up a command for a key in this mode.
func (mb *ModeBindings) GetBinding(msg tea.KeyMsg) (Command, bool) {
	for _, binding := range mb.Bindings {
		if binding.Matches(msg) {
			return binding.Command, true
		}
	}
	return "", false
}

// Keymap contains all key bindings organized by mode.
type Keymap struct {
	Name        string
	Description string
	Modes       map[Mode]*ModeBindings
}

// GetBinding looks up a command for a key in a specific mode.
func (km *Keymap) GetBinding(msg tea.KeyMsg, mode Mode) (Command, bool) {
	mb, ok := km.Modes[mode]
	if !ok {
		return "", false
	}
	return mb.GetBinding(msg)
}

// GetModeBindings returns all bindings for a specific mode.
func (km *Keymap) GetModeBindings(mode Mode) []KeyBinding {
	mb, ok := km.Modes[mode]
	if !ok {
		return nil
	}
	return mb.Bindings
}

// GetBindingsForCommand returns all bindings that trigger a specific command.
func (km *Keymap) GetBindingsForCommand(cmd Command, mode Mode) []KeyBinding {
	var result []KeyBinding
	for _, binding := range km.GetModeBindings(mode) {
		if binding.Command == cmd {
			result = append(result, binding)
		}
	}
	return result
}

// HelpEntry is one key/description pair of the help bar.
type HelpEntry struct {
	Key         string
	Description string
	Category    string
}

// Help returns one entry per command of a mode, in binding order, joining
// the keys that share a command ("j/down").
func (km *Keymap) Help(mode Mode) []HelpEntry {
	var entries []HelpEntry
	index := make(map[Command]int)
	for _, b := range km.GetModeBindings(mode) {
		if i, ok := index[b.Command]; ok {
			entries[i].Key += "/" + b.String()
			continue
		}
		if b.Description == "" {
			continue
		}
		index[b.Command] = len(entries)
		entries = append(entries, HelpEntry{Key: b.String(), Description: b.Description, Category: b.Category})
	}
	return entries
}

// Clone returns a deep copy so overrides never touch the default keymap.
func (km *Keymap) Clone() *Keymap {
	out := &Keymap{Name: km.Name, Description: km.Description, Modes: make(map[Mode]*ModeBindings, len(km.Modes))}
	for mode, mb := range km.Modes {
		bindings := make([]KeyBinding, len(mb.Bindings))
		copy(bindings, mb.Bindings)
		out.Modes[mode] = &ModeBindings{Mode: mode, Bindings: bindings}
	}
	return out
}

// ParseKeySpec parses a key specification string into KeyType, Rune and
// Modifiers. Examples: "ctrl+r", "shift+tab", "j", "enter", "alt+n".
func ParseKeySpec(spec string) (keyType tea.KeyType, r rune, mods Modifier, err error) {
	remaining := spec
	ctrl := false
	for {
		switch {
		case len(remaining) > 5 && remaining[:5] == "ctrl+":
			ctrl = true
			remaining = remaining[5:]
			continue
		case len(remaining) > 4 && remaining[:4] == "alt+":
			mods |= ModAlt
			remaining = remaining[4:]
			continue
		}
		break
	}

	if ctrl {
		if len(remaining) == 1 && remaining[0] >= 'a' && remaining[0] <= 'z' {
			return tea.KeyCtrlA + tea.KeyType(remaining[0]-'a'), 0, mods, nil
		}
		return 0, 0, 0, fmt.Errorf("unrecognized key spec: %s", spec)
	}

	switch remaining {
	case "enter":
		return tea.KeyEnter, 0, mods, nil
	case "tab":
		return tea.KeyTab, 0, mods, nil
	case "shift+tab":
		return tea.KeyShiftTab, 0, mods, nil
	case "esc", "escape":
		return tea.KeyEsc, 0, mods, nil
	case "space":
		return tea.KeySpace, 0, mods, nil
	case "backspace":
		return tea.KeyBackspace, 0, mods, nil
	case "up":
		return tea.KeyUp, 0, mods, nil
	case "down":
		return tea.KeyDown, 0, mods, nil
	case "left":
		return tea.KeyLeft, 0, mods, nil
	case "right":
		return tea.KeyRight, 0, mods, nil
	case "home":
		return tea.KeyHome, 0, mods, nil
	case "end":
		return tea.KeyEnd, 0, mods, nil
	}

	if runes := []rune(remaining); len(runes) == 1 {
		return tea.KeyRunes, runes[0], mods, nil
	}

	return 0, 0, 0, fmt.Errorf("unrecognized key spec: %s", spec)
}
