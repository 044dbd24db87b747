package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	appconfig "github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage color themes",
	Long: `Manage color themes for the askuser TUI.

askuser ships a dark and a light theme and picks one from the terminal
background when tui.theme is "auto". Set tui.theme to the path of a YAML
theme file to use your own colors.

Use 'theme list' to see all available themes.
Use 'theme export' to create a template for custom themes.
Use 'theme info' to view the colors of a theme.`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in themes",
	RunE:  runThemeList,
}

var themeExportCmd = &cobra.Command{
	Use:   "export <theme> [output-file]",
	Short: "Export a theme to YAML",
	Long: `Export a theme to YAML format for customization or sharing.

The theme is a built-in name (dark, light) or the path of a theme file.
If no output file is specified, the YAML is printed to stdout.

Examples:
  askuser config theme export dark                 # Print the dark theme to stdout
  askuser config theme export light my-theme.yaml  # Save the light theme to a file
  askuser config set tui.theme my-theme.yaml       # Use it`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThemeExport,
}

var themeInfoCmd = &cobra.Command{
	Use:   "info <theme>",
	Short: "Show the colors of a theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeInfo,
}

func init() {
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeExportCmd)
	themeCmd.AddCommand(themeInfoCmd)
	configCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Built-in themes:")
	for _, name := range styles.BuiltinThemes() {
		if name == styles.ThemeAuto {
			fmt.Fprintf(w, "  - %s (dark or light, from the terminal background)\n", name)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Custom themes: set tui.theme to the path of a .yaml theme file.")
	fmt.Fprintln(w, "Create one with 'askuser config theme export dark my-theme.yaml'.")
	return nil
}

// loadTheme returns the palette for a built-in name or a theme file path,
// along with a display name.
func loadTheme(theme string) (string, *styles.ColorPalette, error) {
	switch {
	case theme == styles.ThemeAuto:
		return "", nil, fmt.Errorf("%q is resolved at startup; export %q or %q instead", theme, styles.ThemeDark, styles.ThemeLight)
	case slices.Contains(styles.BuiltinThemes(), theme):
		p, err := styles.Resolve(theme, nil)
		return theme, p, err
	}

	file, err := styles.LoadThemeFile(appconfig.ExpandPath(theme))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("unknown theme: %s\n\nRun 'askuser config theme list' to see available themes", theme)
		}
		return "", nil, fmt.Errorf("theme '%s' failed to load: %w", theme, err)
	}
	return file.Name, file.ToPalette(), nil
}

func runThemeExport(cmd *cobra.Command, args []string) error {
	name, palette, err := loadTheme(args[0])
	if err != nil {
		return err
	}

	data, err := styles.ExportTheme(name, palette)
	if err != nil {
		return fmt.Errorf("exporting theme: %w", err)
	}

	// If output file specified, write to file
	if len(args) > 1 {
		outputPath := args[1]
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing to %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme exported to: %s\n", outputPath)
		return nil
	}

	// Otherwise print to stdout
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runThemeInfo(cmd *cobra.Command, args []string) error {
	name, palette, err := loadTheme(args[0])
	if err != nil {
		return err
	}
	printThemeInfo(cmd.OutOrStdout(), name, slices.Contains(styles.BuiltinThemes(), args[0]), palette)
	return nil
}

func printThemeInfo(w io.Writer, name string, builtin bool, p *styles.ColorPalette) {
	fmt.Fprintf(w, "Theme: %s\n", name)
	if builtin {
		fmt.Fprintln(w, "Type: Built-in")
	} else {
		fmt.Fprintln(w, "Type: Custom")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Colors:")
	fmt.Fprintf(w, "  Primary:   %s\n", p.Primary)
	fmt.Fprintf(w, "  Secondary: %s\n", p.Secondary)
	fmt.Fprintf(w, "  Warning:   %s\n", p.Warning)
	fmt.Fprintf(w, "  Error:     %s\n", p.Error)
	fmt.Fprintf(w, "  Muted:     %s\n", p.Muted)
	fmt.Fprintf(w, "  Surface:   %s\n", p.Surface)
	fmt.Fprintf(w, "  Text:      %s\n", p.Text)
	fmt.Fprintf(w, "  Border:    %s\n", p.Border)
}
