package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// ConfigItem represents a single configuration item
type ConfigItem struct {
	Key         string
	Label       string
	Description string
	Type        string   // "string", "bool", "int", "select"
	Options     []string // For select type
}

// Category represents a group of config items
type Category struct {
	Name  string
	Items []ConfigItem
}

// Model is the Bubbletea model for the interactive config UI
type Model struct {
	v          *viper.Viper
	configFile string
	styles     *styles.Styles

	categories     []Category
	categoryIndex  int
	itemIndex      int
	width          int
	height         int
	editing        bool
	textInput      textinput.Model
	selectIndex    int // For select-type options
	errorMsg       string
	infoMsg        string
	quitting       bool
	configModified bool
}

// Categories returns the editable settings grouped for display.
func Categories() []Category {
	return []Category{
		{
			Name: "Questions",
			Items: []ConfigItem{
				{
					Key:         "questions.max_options",
					Label:       "Max Options",
					Description: "Most options a multi-select answer may pick (0 = no cap)",
					Type:        "int",
				},
				{
					Key:         "questions.max_questions",
					Label:       "Max Questions",
					Description: "Most questions a single session may ask (0 = no cap)",
					Type:        "int",
				},
				{
					Key:         "questions.recommended_options",
					Label:       "Recommended Options",
					Description: "Selections above this count show a hint",
					Type:        "int",
				},
				{
					Key:         "questions.recommended_questions",
					Label:       "Recommended Questions",
					Description: "Question sets above this count log a warning",
					Type:        "int",
				},
			},
		},
		{
			Name: "Session",
			Items: []ConfigItem{
				{
					Key:         "session.dir",
					Label:       "Session Directory",
					Description: "Where session records are stored (empty = user cache directory)",
					Type:        "string",
				},
				{
					Key:         "session.timeout_ms",
					Label:       "Timeout (ms)",
					Description: "Idle time before an active session expires (0 = never)",
					Type:        "int",
				},
				{
					Key:         "session.retention_ms",
					Label:       "Retention (ms)",
					Description: "Idle time before a session record is deleted",
					Type:        "int",
				},
				{
					Key:         "session.sweep_interval_ms",
					Label:       "Sweep Interval (ms)",
					Description: "Minimum time between retention sweeps (0 = disabled)",
					Type:        "int",
				},
				{
					Key:         "session.max_conflict_retries",
					Label:       "Conflict Retries",
					Description: "How often a conflicting update is retried (1-10)",
					Type:        "int",
				},
			},
		},
		{
			Name: "TUI",
			Items: []ConfigItem{
				{
					Key:         "tui.theme",
					Label:       "Theme",
					Description: "Color theme: auto, dark, light, or a .yaml theme file",
					Type:        "string",
				},
				{
					Key:         "tui.keymap",
					Label:       "Keymap File",
					Description: "Optional .yaml file overriding key bindings",
					Type:        "string",
				},
			},
		},
		{
			Name: "Logging",
			Items: []ConfigItem{
				{
					Key:         "logging.enabled",
					Label:       "Enabled",
					Description: "Write a log file next to the session records",
					Type:        "bool",
				},
				{
					Key:         "logging.level",
					Label:       "Level",
					Description: "Minimum level written to the log file",
					Type:        "select",
					Options:     config.ValidLogLevels(),
				},
			},
		},
	}
}

// Lookup returns the editable item for key.
func Lookup(key string) (ConfigItem, bool) {
	for _, cat := range Categories() {
		for _, item := range cat.Items {
			if item.Key == key {
				return item, true
			}
		}
	}
	return ConfigItem{}, false
}

// New creates a config model editing v and saving to configFile.
func New(v *viper.Viper, configFile string, st *styles.Styles) Model {
	if st == nil {
		st = styles.New(nil)
	}
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return Model{
		v:          v,
		configFile: configFile,
		styles:     st,
		categories: Categories(),
		textInput:  ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear messages on any key
		m.errorMsg = ""
		m.infoMsg = ""

		if m.editing {
			return m.handleEditingKeypress(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			m.itemIndex--
			if m.itemIndex < 0 {
				m.categoryIndex--
				if m.categoryIndex < 0 {
					m.categoryIndex = len(m.categories) - 1
				}
				m.itemIndex = len(m.categories[m.categoryIndex].Items) - 1
			}

		case "down", "j":
			m.itemIndex++
			if m.itemIndex >= len(m.categories[m.categoryIndex].Items) {
				m.categoryIndex++
				if m.categoryIndex >= len(m.categories) {
					m.categoryIndex = 0
				}
				m.itemIndex = 0
			}

		case "tab":
			m.categoryIndex++
			if m.categoryIndex >= len(m.categories) {
				m.categoryIndex = 0
			}
			m.itemIndex = 0

		case "shift+tab":
			m.categoryIndex--
			if m.categoryIndex < 0 {
				m.categoryIndex = len(m.categories) - 1
			}
			m.itemIndex = 0

		case "enter", " ":
			item := m.currentItem()
			switch item.Type {
			case "bool":
				m.apply(item, !m.v.GetBool(item.Key))
			case "select":
				m.editing = true
				m.selectIndex = m.getCurrentSelectIndex()
			default:
				m.editing = true
				m.textInput.SetValue(m.getDisplayValue(item))
				m.textInput.CursorEnd()
				cmd := m.textInput.Focus()
				return m, cmd
			}

		case "r":
			m.resetCurrentToDefault()
		}
	}

	return m, nil
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := m.currentItem()

	switch msg.String() {
	case "esc":
		m.editing = false
		m.textInput.Blur()
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		if item.Type == "select" {
			m.apply(item, item.Options[m.selectIndex])
			m.editing = false
			return m, nil
		}
		value, err := ParseValue(item, m.textInput.Value())
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		if m.apply(item, value) {
			m.editing = false
			m.textInput.Blur()
			m.textInput.SetValue("")
		}
		return m, nil

	case "up", "k":
		if item.Type == "select" {
			m.selectIndex--
			if m.selectIndex < 0 {
				m.selectIndex = len(item.Options) - 1
			}
			return m, nil
		}

	case "down", "j":
		if item.Type == "select" {
			m.selectIndex++
			if m.selectIndex >= len(item.Options) {
				m.selectIndex = 0
			}
			return m, nil
		}
	}

	if item.Type != "select" {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply sets item to value, validates the whole configuration and saves it.
// An invalid value is rolled back and reported.
func (m *Model) apply(item ConfigItem, value any) bool {
	previous := m.v.Get(item.Key)
	m.v.Set(item.Key, value)

	if _, err := config.LoadFrom(m.v); err != nil {
		m.v.Set(item.Key, previous)
		m.errorMsg = fieldError(err, item.Key)
		return false
	}

	m.saveConfig()
	return m.errorMsg == ""
}

// fieldError returns the validation message for key, or the whole error.
func fieldError(err error, key string) string {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			if ve.Field == key {
				return ve.Message
			}
		}
	}
	return err.Error()
}

// ParseValue converts text entered for item into the value stored in viper.
func ParseValue(item ConfigItem, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch item.Type {
	case "int":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer value")
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return b, nil
	default:
		return value, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.styles
	var b strings.Builder

	b.WriteString(s.Header.Render("askuser configuration"))
	b.WriteString("\n\n")
	b.WriteString(s.Hint.Render("Config file: " + m.configFile))
	b.WriteString("\n\n")

	for ci, cat := range m.categories {
		isActiveCategory := ci == m.categoryIndex

		catStyle := s.Help.Bold(true)
		if isActiveCategory {
			catStyle = s.Title
		}
		b.WriteString(catStyle.Render(fmt.Sprintf("[ %s ]", cat.Name)))
		b.WriteString("\n")

		for ii, item := range cat.Items {
			b.WriteString(m.renderItem(item, isActiveCategory && ii == m.itemIndex))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(m.renderEditOverlay())
	} else {
		b.WriteString(s.Hint.Render(m.currentItem().Description))
		b.WriteString("\n")
	}

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(s.Error.Render("Error: " + m.errorMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(s.Selected.Render(m.infoMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderItem(item ConfigItem, selected bool) string {
	s := m.styles
	value := m.getDisplayValue(item)
	if value == "" {
		value = "(default)"
	}

	label := item.Label
	if len(label) > 25 {
		label = label[:22] + "..."
	}
	paddedLabel := fmt.Sprintf("%-25s", label)

	if selected {
		return fmt.Sprintf("  %s %s  %s", s.Focused.Render(">"), s.Focused.Render(paddedLabel), s.Selected.Render(value))
	}
	return fmt.Sprintf("    %s  %s", s.Help.Render(paddedLabel), s.Option.Render(value))
}

func (m Model) renderEditOverlay() string {
	s := m.styles
	item := m.currentItem()

	var content string
	if item.Type == "select" {
		content = fmt.Sprintf("Select %s:\n\n", item.Label)
		for i, opt := range item.Options {
			if i == m.selectIndex {
				content += s.Focused.Render(fmt.Sprintf(" > %s ", opt)) + "\n"
			} else {
				content += s.Option.Render(fmt.Sprintf("   %s ", opt)) + "\n"
			}
		}
		content += "\n" + s.Hint.Render("j/k or arrows to select, enter to confirm, esc to cancel")
	} else {
		content = fmt.Sprintf("Edit %s:\n\n", item.Label)
		content += m.textInput.View()
		content += "\n\n" + s.Hint.Render("enter to save, esc to cancel")
	}

	return "\n" + s.ContentBox.Width(50).Render(content)
}

func (m Model) renderHelp() string {
	s := m.styles
	if m.editing {
		return s.HelpKey.Render("enter") + s.Help.Render(" save  ") +
			s.HelpKey.Render("esc") + s.Help.Render(" cancel")
	}

	return s.HelpKey.Render("j/k") + s.Help.Render(" navigate  ") +
		s.HelpKey.Render("tab") + s.Help.Render(" next category  ") +
		s.HelpKey.Render("enter/space") + s.Help.Render(" edit  ") +
		s.HelpKey.Render("r") + s.Help.Render(" reset  ") +
		s.HelpKey.Render("q") + s.Help.Render(" quit")
}

func (m Model) currentItem() ConfigItem {
	return m.categories[m.categoryIndex].Items[m.itemIndex]
}

func (m Model) getDisplayValue(item ConfigItem) string {
	switch item.Type {
	case "bool":
		return strconv.FormatBool(m.v.GetBool(item.Key))
	case "int":
		return strconv.FormatInt(m.v.GetInt64(item.Key), 10)
	default:
		return m.v.GetString(item.Key)
	}
}

func (m Model) getCurrentSelectIndex() int {
	item := m.currentItem()
	current := m.v.GetString(item.Key)
	for i, opt := range item.Options {
		if opt == current {
			return i
		}
	}
	return 0
}

func (m *Model) saveConfig() {
	if err := os.MkdirAll(filepath.Dir(m.configFile), 0o755); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to create config directory: %v", err)
		return
	}

	if err := m.v.WriteConfigAs(m.configFile); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to save config: %v", err)
		return
	}

	m.infoMsg = "Saved!"
	m.configModified = true
}

// DefaultValues maps every editable key to its default.
func DefaultValues() map[string]any {
	d := config.Default()
	return map[string]any{
		"questions.max_options":           d.Questions.MaxOptions,
		"questions.max_questions":         d.Questions.MaxQuestions,
		"questions.recommended_options":   d.Questions.RecommendedOptions,
		"questions.recommended_questions": d.Questions.RecommendedQuestions,
		"session.dir":                     d.Session.Dir,
		"session.timeout_ms":              d.Session.TimeoutMs,
		"session.retention_ms":            d.Session.RetentionMs,
		"session.sweep_interval_ms":       d.Session.SweepIntervalMs,
		"session.max_conflict_retries":    d.Session.MaxConflictRetries,
		"tui.theme":                       d.TUI.Theme,
		"tui.keymap":                      d.TUI.Keymap,
		"logging.enabled":                 d.Logging.Enabled,
		"logging.level":                   d.Logging.Level,
	}
}

func (m *Model) resetCurrentToDefault() {
	item := m.currentItem()
	if defaultVal, ok := DefaultValues()[item.Key]; ok && m.apply(item, defaultVal) {
		m.infoMsg = fmt.Sprintf("Reset %s to default", item.Label)
	}
}

// Modified reports whether any change was saved.
func (m Model) Modified() bool {
	return m.configModified
}

// Run starts the interactive config UI
func Run(v *viper.Viper, configFile string, st *styles.Styles) error {
	p := tea.NewProgram(New(v, configFile, st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
