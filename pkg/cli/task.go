package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/evanmoss/taskweave/pkg/depgraph"
	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/evanmoss/taskweave/pkg/store"
	"github.com/spf13/cobra"
)

func newAddCommand(opts *options) *cobra.Command {
	var (
		parent     string
		desc       string
		due        string
		start      string
		end        string
		importance int
		estimate   int
		every      string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := &model.Task{
				Title:       strings.Join(args, " "),
				Description: desc,
				ParentID:    parent,
			}
			if due != "" {
				d, err := parseWhen(due)
				if err != nil {
					return fmt.Errorf("bad --due: %w", err)
				}
				draft.Deadline = &d
			}
			if start != "" || end != "" {
				s, err := parseWhen(start)
				if err != nil {
					return fmt.Errorf("bad --start: %w", err)
				}
				e, err := parseWhen(end)
				if err != nil {
					return fmt.Errorf("bad --end: %w", err)
				}
				draft.PlannedStart = &s
				draft.PlannedEnd = &e
			}
			if cmd.Flags().Changed("importance") {
				draft.Importance = &importance
			}
			if cmd.Flags().Changed("estimate") {
				draft.EstimateMinutes = &estimate
			}
			if every != "" {
				rule, err := parseRecurrence(every)
				if err != nil {
					return err
				}
				draft.Recurrence = rule
			}

			s, err := opts.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			created, err := s.AddTask(cmd.Context(), draft)
			if err != nil {
				s.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.Slug, created.ID)
			return closeAndReport(cmd, s)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent task id")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "deadline (2006-01-02 or '2006-01-02 15:04')")
	cmd.Flags().StringVar(&start, "start", "", "planned start; requires --end")
	cmd.Flags().StringVar(&end, "end", "", "planned end; requires --start")
	cmd.Flags().IntVar(&importance, "importance", 0, "importance 0-100")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "estimated minutes")
	cmd.Flags().StringVar(&every, "every", "", "recurrence: daily, weekly, monthly, 2d, 3w, weekly:mon,wed")
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	var (
		all         bool
		parent      string
		unscheduled bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			var tasks []*model.Task
			switch {
			case unscheduled:
				tasks = s.UnscheduledTasks()
			case cmd.Flags().Changed("parent"):
				tasks = s.ScopedTasks(parent)
			default:
				tasks = s.VisibleTasks(all || s.ShowCompleted())
			}

			levels := s.Levels(nil)
			for _, t := range tasks {
				printTask(cmd, s, t, levels[t.ID])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	cmd.Flags().StringVar(&parent, "parent", "", "only direct children of this task ('' for roots)")
	cmd.Flags().BoolVar(&unscheduled, "unscheduled", false, "only tasks without a planned window")
	return cmd
}

func newDoneCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			task, err := s.CompleteTask(cmd.Context(), args[0])
			if err != nil {
				s.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "done: %s\n", task.Title)
			return closeAndReport(cmd, s)
		},
	}
}

func newRemoveCommand(opts *options) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			if tree {
				err = s.DeleteSubtree(cmd.Context(), args[0])
			} else {
				err = s.DeleteTask(cmd.Context(), args[0])
			}
			if err != nil {
				s.Close()
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return closeAndReport(cmd, s)
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "also delete every descendant")
	return cmd
}

func printTask(cmd *cobra.Command, s *store.Store, t *model.Task, level int) {
	out := cmd.OutOrStdout()
	mark := " "
	if t.Status.IsDone() {
		mark = "✓"
	}
	line := fmt.Sprintf("%s [%s] %-40s", mark, shortID(t.ID), t.Title)
	if t.Deadline != nil {
		line += "  due " + t.Deadline.Format("2006-01-02")
	}
	if t.PlannedStart != nil && t.PlannedEnd != nil {
		line += fmt.Sprintf("  planned %s–%s",
			t.PlannedStart.Format("01-02 15:04"), t.PlannedEnd.Format("15:04"))
	}
	if level > 0 {
		line += fmt.Sprintf("  L%d", level)
	}
	fmt.Fprintln(out, line)

	warnings, err := s.Warnings(t.ID)
	if err != nil {
		return
	}
	for _, w := range warnings {
		switch w.Kind {
		case depgraph.WarnSchedule:
			fmt.Fprintf(out, "    ! %q ends %s, after this task starts\n",
				w.PredecessorTitle, w.PredecessorEnd.Format("01-02 15:04"))
		case depgraph.WarnUnplanned:
			fmt.Fprintf(out, "    ! %q has no planned end\n", w.PredecessorTitle)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseWhen accepts a date or a date with a wall-clock time, both in
// the local timezone.
func parseWhen(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseRecurrence understands "daily", "weekly", "monthly", a count
// prefix ("2d", "3w", "6m"), and weekday sets ("weekly:mon,wed").
func parseRecurrence(s string) (*model.RecurrenceRule, error) {
	pattern := strings.ToLower(strings.TrimSpace(s))
	rule := &model.RecurrenceRule{Interval: 1}

	if base, days, ok := strings.Cut(pattern, ":"); ok {
		pattern = base
		for _, name := range strings.Split(days, ",") {
			d, ok := weekdayNames[strings.TrimSpace(name)]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			rule.DaysOfWeek = append(rule.DaysOfWeek, d)
		}
	}

	switch {
	case pattern == "daily":
		rule.Type = model.RecurDaily
	case pattern == "weekly":
		rule.Type = model.RecurWeekly
	case pattern == "monthly":
		rule.Type = model.RecurMonthly
	default:
		var n int
		var unit string
		if _, err := fmt.Sscanf(pattern, "%d%s", &n, &unit); err != nil || n < 1 {
			return nil, fmt.Errorf("unrecognized recurrence %q", s)
		}
		rule.Interval = n
		switch unit {
		case "d":
			rule.Type = model.RecurDaily
		case "w":
			rule.Type = model.RecurWeekly
		case "m":
			rule.Type = model.RecurMonthly
		default:
			return nil, fmt.Errorf("unrecognized recurrence unit %q", unit)
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}
