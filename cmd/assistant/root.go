package main

import (
	"github.com/spf13/cobra"

	"github.com/nhle/assistant-engine/internal/model"
)

var (
	configPath   string
	userFlag     string
	providerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Ask an AI assistant about your tasks, chats and calendar",
	Long: `assistant answers questions about your tasks, chats, contacts and
calendar, and can create tasks, send messages and schedule events on
your behalf.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user ID (overrides user_id)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "model provider: openai, anthropic or gemini")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
