package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/askuser/internal/cmd/ask"
	configcmd "github.com/Iron-Ham/askuser/internal/cmd/config"
	sessioncmd "github.com/Iron-Ham/askuser/internal/cmd/session"
	"github.com/Iron-Ham/askuser/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "askuser",
	Short: "Ask the user structured questions in the terminal",
	Long: `askuser presents structured questions (single choice, multiple choice,
free text and notes) in an interactive terminal UI and hands the answers back
as JSON or YAML.

Every run is a persisted session, so answers survive a crash and can be
inspected, resumed or cleaned up later with the session commands.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/askuser/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	ask.Register(rootCmd)
	sessioncmd.Register(rootCmd)
	configcmd.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ASKUSER")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ASKUSER_SESSION_TIMEOUT_MS for session.timeout_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
