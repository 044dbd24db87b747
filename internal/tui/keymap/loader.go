package keymap

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// KeymapConfig is the YAML form of a keymap override file. Every command
// listed under a mode replaces the default bindings of that command in that
// mode; unlisted commands keep their defaults.
type KeymapConfig struct {
	Name        string                      `yaml:"name"`
	Description string                      `yaml:"description,omitempty"`
	Modes       map[string][]KeyBindingSpec `yaml:"modes"`
}

// KeyBindingSpec is a serializable key binding.
type KeyBindingSpec struct {
	Key         string `yaml:"key"`     // e.g. "ctrl+r", "j", "enter"
	Command     string `yaml:"command"` // Command name
	Description string `yaml:"description,omitempty"`
}

// LoadFile reads a keymap override file and applies it to the default keymap.
func LoadFile(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap file: %w", err)
	}

	var cfg KeymapConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keymap file: %w", err)
	}

	return Apply(DefaultKeymap(), cfg)
}

// Apply returns a copy of base with the overrides of cfg applied.
func Apply(base *Keymap, cfg KeymapConfig) (*Keymap, error) {
	km := base.Clone()
	if cfg.Name != "" {
		km.Name = cfg.Name
	}
	if cfg.Description != "" {
		km.Description = cfg.Description
	}

	for modeName, specs := range cfg.Modes {
		mode := Mode(modeName)
		mb, ok := km.Modes[mode]
		if !ok {
			return nil, fmt.Errorf("unknown keymap mode %q", modeName)
		}

		known := make(map[Command]KeyBinding)
		for _, b := range mb.Bindings {
			if _, seen := known[b.Command]; !seen {
				known[b.Command] = b
			}
		}

		var overrides []KeyBinding
		replaced := make(map[Command]bool)
		for _, spec := range specs {
			cmd := Command(spec.Command)
			def, ok := known[cmd]
			if !ok {
				return nil, fmt.Errorf("mode %s: unknown command %q", modeName, spec.Command)
			}
			keyType, r, mods, err := ParseKeySpec(spec.Key)
			if err != nil {
				return nil, fmt.Errorf("mode %s: %w", modeName, err)
			}
			desc := spec.Description
			if desc == "" && !replaced[cmd] {
				desc = def.Description
			}
			replaced[cmd] = true
			overrides = append(overrides, KeyBinding{
				KeyType:     keyType,
				Rune:        r,
				Modifiers:   mods,
				Command:     cmd,
				Description: desc,
				Category:    def.Category,
			})
		}

		kept := slices.DeleteFunc(mb.Bindings, func(b KeyBinding) bool {
			return replaced[b.Command]
		})
		// Overrides come first so they win over any default that shares the key.
		mb.Bindings = append(overrides, kept...)
	}
	return km, nil
}
