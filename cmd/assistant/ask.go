package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	askChat   string
	askTask   string
	askDryRun bool
)

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Send a single request to the assistant",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askChat, "chat", "c", "", "email of the chat the request is about")
	askCmd.Flags().StringVarP(&askTask, "task", "t", "", "ID of the task the request is about")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "show the action without applying it")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := newSession(a, cmd.OutOrStdout(), askDryRun)
	if askChat != "" {
		s.openChat(ctx, askChat)
	}
	if askTask != "" {
		s.openTask(ctx, askTask)
	}
	s.ask(ctx, strings.Join(args, " "))
	return nil
}
