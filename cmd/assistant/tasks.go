package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/assistant-engine/internal/theme"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List your tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasks,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.store.GetTasks(cmd.Context(), a.cfg.UserID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, theme.HelpStyle.Render("No tasks."))
		return nil
	}

	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", mark, t.ID, t.Title)
		if t.Priority != "" {
			line += " " + theme.PriorityStyle(string(t.Priority)).Render(string(t.Priority))
		}
		if t.DueDate != nil {
			line += theme.HelpStyle.Render(" due " + t.DueDate.In(a.loc).Format("Jan 2, 2006"))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return a.store.CompleteTask(cmd.Context(), args[0])
}
