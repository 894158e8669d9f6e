package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/schedule"
)

func materializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materialize",
		Short: "Create missing pending occurrences for every recurring task",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			created, err := e.materializeService().Run(context.Background(), time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("materialized %d occurrence(s)\n", created)
			return nil
		},
	}
}

func agendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print a user's agenda, grouped by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID, err := cmd.Flags().GetInt64("telegram-id")
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			user, err := e.findUser(ctx, telegramID)
			if err != nil {
				return err
			}
			agenda, err := e.agendaService().Agenda(ctx, user, time.Now())
			if err != nil {
				return err
			}
			printAgenda(agenda)
			return nil
		},
	}
	cmd.Flags().Int64("telegram-id", 0, "Telegram id of the user")
	cmd.MarkFlagRequired("telegram-id")
	return cmd
}

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List a user's dashboard tasks with their subtasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID, err := cmd.Flags().GetInt64("telegram-id")
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := context.Background()
			user, err := e.findUser(ctx, telegramID)
			if err != nil {
				return err
			}
			tasks, err := e.agendaService().Tasks(ctx, user)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("no tasks")
				return nil
			}
			for _, t := range tasks {
				fmt.Println(taskLine(t))
				for _, s := range t.Subtasks {
					fmt.Printf("    #%-5d %s [%s]\n", s.ID, s.Title, s.Status)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64("telegram-id", 0, "Telegram id of the user")
	cmd.MarkFlagRequired("telegram-id")
	return cmd
}

func completeBeforeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete-before <task-id> <yyyy-mm-dd>",
		Short: "Batch-complete a task's pending occurrences before a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskID uint
			if _, err := fmt.Sscanf(args[0], "%d", &taskID); err != nil {
				return fmt.Errorf("task id %q: %w", args[0], err)
			}
			before, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("date %q: %w", args[1], err)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			count, err := e.instances.CompleteBefore(context.Background(), taskID, before)
			if err != nil {
				return err
			}
			fmt.Printf("completed %d occurrence(s)\n", count)
			return nil
		},
	}
}

func printAgenda(a schedule.Agenda) {
	if a.Empty() {
		fmt.Println("nothing scheduled")
		return
	}
	if len(a.Overdue) > 0 {
		fmt.Printf("OVERDUE (%d)\n", a.OverdueCount)
		printGroups(a.Overdue)
		fmt.Println()
	}
	if len(a.Upcoming) > 0 {
		fmt.Println("UPCOMING")
		printGroups(a.Upcoming)
	}
}

func printGroups(groups []schedule.Group) {
	for _, g := range groups {
		fmt.Printf("  %s (%s)\n", g.Label, g.Date.Format("2006-01-02"))
		for _, t := range g.Tasks {
			fmt.Printf("    %s\n", taskLine(t))
		}
	}
}

func taskLine(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-5d %s", t.ID, t.Title)
	if t.ScheduledDate != nil {
		fmt.Fprintf(&b, " @%s", t.ScheduledDate.Format("2006-01-02"))
	}
	if t.ScheduledTime != nil {
		fmt.Fprintf(&b, " %s", *t.ScheduledTime)
	}
	if t.Recurs() {
		fmt.Fprintf(&b, " (%s)", t.RecurrenceRule.Describe())
	}
	return b.String()
}
