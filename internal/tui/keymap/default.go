package keymap

import tea "github.com/charmbracelet/bubbletea"

// DefaultKeymap returns the built-in key bindings.
func DefaultKeymap() *Keymap {
	return &Keymap{
		Name:        "default",
		Description: "Default askuser key bindings",
		Modes: map[Mode]*ModeBindings{
			ModeQuestion: defaultQuestionBindings(),
			ModeInput:    defaultInputBindings(),
			ModeReview:   defaultReviewBindings(),
		},
	}
}

func defaultQuestionBindings() *ModeBindings {
	return &ModeBindings{
		Mode: ModeQuestion,
		Bindings: []KeyBinding{
			// Options
			{KeyType: tea.KeyRunes, Rune: 'k', Command: CmdMoveUp, Description: "up", Category: "Options"},
			{KeyType: tea.KeyUp, Command: CmdMoveUp, Category: "Options"},
			{KeyType: tea.KeyRunes, Rune: 'j', Command: CmdMoveDown, Description: "down", Category: "Options"},
			{KeyType: tea.KeyDown, Command: CmdMoveDown, Category: "Options"},
			{KeyType: tea.KeySpace, Command: CmdSelect, Description: "select", Category: "Options"},
			{KeyType: tea.KeyEnter, Command: CmdConfirm, Description: "confirm", Category: "Options"},
			{KeyType: tea.KeyRunes, Rune: 'o', Command: CmdCustom, Description: "other", Category: "Options"},
			{KeyType: tea.KeyRunes, Rune: 'e', Command: CmdElaborate, Description: "note", Category: "Options"},

			// Navigation
			{KeyType: tea.KeyTab, Command: CmdNextQuestion, Description: "next", Category: "Navigation"},
			{KeyType: tea.KeyRunes, Rune: 'n', Command: CmdNextQuestion, Category: "Navigation"},
			{KeyType: tea.KeyShiftTab, Command: CmdPrevQuestion, Description: "prev", Category: "Navigation"},
			{KeyType: tea.KeyRunes, Rune: 'p', Command: CmdPrevQuestion, Category: "Navigation"},
			{KeyType: tea.KeyRunes, Rune: 'r', Command: CmdReview, Description: "review", Category: "Navigation"},

			// Application
			{KeyType: tea.KeyRunes, Rune: '?', Command: CmdToggleHelp, Description: "help", Category: "Application"},
			{KeyType: tea.KeyRunes, Rune: 'q', Command: CmdQuit, Description: "quit", Category: "Application"},
			{KeyType: tea.KeyCtrlC, Command: CmdForceQuit, Category: "Application"},
		},
	}
}

func defaultInputBindings() *ModeBindings {
	return &ModeBindings{
		Mode: ModeInput,
		Bindings: []KeyBinding{
			{KeyType: tea.KeyEnter, Command: CmdSubmitInput, Description: "save", Category: "Input"},
			{KeyType: tea.KeyEsc, Command: CmdCancelInput, Description: "cancel", Category: "Input"},
			{KeyType: tea.KeyCtrlC, Command: CmdForceQuit, Category: "Application"},
		},
	}
}

func defaultReviewBindings() *ModeBindings {
	bindings := []KeyBinding{
		{KeyType: tea.KeyRunes, Rune: 'k', Command: CmdMoveUp, Description: "up", Category: "Review"},
		{KeyType: tea.KeyUp, Command: CmdMoveUp, Category: "Review"},
		{KeyType: tea.KeyRunes, Rune: 'j', Command: CmdMoveDown, Description: "down", Category: "Review"},
		{KeyType: tea.KeyDown, Command: CmdMoveDown, Category: "Review"},
		{KeyType: tea.KeyEnter, Command: CmdEditQuestion, Description: "edit", Category: "Review"},
		{KeyType: tea.KeyRunes, Rune: 's', Command: CmdSubmit, Description: "submit", Category: "Review"},
		{KeyType: tea.KeyEsc, Command: CmdBack, Description: "back", Category: "Review"},
	}
	for r := '1'; r <= '9'; r++ {
		bindings = append(bindings, KeyBinding{KeyType: tea.KeyRunes, Rune: r, Command: CmdJumpToQuestion, Category: "Review"})
	}
	bindings = append(bindings,
		KeyBinding{KeyType: tea.KeyRunes, Rune: '?', Command: CmdToggleHelp, Description: "help", Category: "Application"},
		KeyBinding{KeyType: tea.KeyRunes, Rune: 'q', Command: CmdQuit, Description: "quit", Category: "Application"},
		KeyBinding{KeyType: tea.KeyCtrlC, Command: CmdForceQuit, Category: "Application"},
	)
	return &ModeBindings{Mode: ModeReview, Bindings: bindings}
}
