package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/tracker"
)

// shortIDLen is how many id characters list prints and prefixes must reach.
const shortIDLen = 8

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		notes    string
		priority string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task at the top of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePriority(priority)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				task, err := s.tracker.Create(strings.Join(args, " "), notes, p, interval)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", shortID(task.ID), task.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&notes, "notes", "n", "", "optional notes")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().IntVarP(&interval, "interval", "i", model.ResetDaily, "reset interval in hours (12 or 24)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tracker.ParseFilter(filter)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				printTasks(cmd.OutOrStdout(), s.tracker.Filter(f), s.tracker.Now())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(tracker.FilterAll), "all, active or completed")
	return cmd
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				id, err := resolveID(s.tracker.Tasks(), args[0])
				if err != nil {
					return err
				}
				task, err := s.tracker.Toggle(id)
				if err != nil {
					return err
				}
				state := "Reopened"
				if task.Completed {
					state = "Completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s (streak %d)\n",
					state, shortID(task.ID), task.Text, s.tracker.Streak().Count)
				return nil
			})
		},
	}
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				id, err := resolveID(s.tracker.Tasks(), args[0])
				if err != nil {
					return err
				}
				s.tracker.Delete(id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
				return nil
			})
		},
	}
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID POSITION",
		Short: "Move a task to a list position (1 is the top)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				id, err := resolveID(s.tracker.Tasks(), args[0])
				if err != nil {
					return err
				}
				if err := s.tracker.Reorder(id, pos-1); err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), s.tracker.Tasks(), s.tracker.Now())
				return nil
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		text     string
		notes    string
		priority string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's text, notes, priority or interval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				id, err := resolveID(s.tracker.Tasks(), args[0])
				if err != nil {
					return err
				}
				task, err := s.tracker.Get(id)
				if err != nil {
					return err
				}

				fields := tracker.TaskFields{
					Text:               task.Text,
					Notes:              task.Notes,
					Priority:           task.Priority,
					ResetIntervalHours: task.ResetIntervalHours,
				}
				flags := cmd.Flags()
				if flags.Changed("text") {
					fields.Text = text
				}
				if flags.Changed("notes") {
					fields.Notes = notes
				}
				if flags.Changed("priority") {
					p, err := model.ParsePriority(priority)
					if err != nil {
						return err
					}
					fields.Priority = p
				}
				if flags.Changed("interval") {
					fields.ResetIntervalHours = interval
				}

				updated, err := s.tracker.Update(id, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s\n", shortID(updated.ID), updated.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "new task text")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "new notes")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "reset interval in hours (12 or 24)")
	return cmd
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reset completed tasks whose interval has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				out := cmd.OutOrStdout()
				completed := s.tracker.Filter(tracker.FilterCompleted)
				fmt.Fprintf(out, "Reset %d task(s); %d still completed\n", len(s.reset), len(completed))
				for _, id := range s.reset {
					fmt.Fprintln(out, shortID(id))
				}
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the streak and today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				st := s.tracker.Stats()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Streak:   %d day(s)", st.Streak.Count)
				if st.Streak.LastDate != "" {
					fmt.Fprintf(out, " (last %s)", st.Streak.LastDate)
				}
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Progress: %d/%d done (%.0f%%)\n", st.Done, st.Total, st.Progress)
				if prev := s.tracker.PreviousVisit(); !prev.IsZero() {
					fmt.Fprintf(out, "Last visit: %s\n", humanize.RelTime(prev, s.tracker.Now(), "ago", "from now"))
				}
				return nil
			})
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.configPath); err == nil {
				return fmt.Errorf("config %s already exists", opts.configPath)
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := model.SaveConfig(opts.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.configPath)
			return nil
		},
	})
	return cmd
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(tasks []model.Task, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	for _, t := range tasks {
		if t.ID == arg {
			return t.ID, nil
		}
	}

	var match string
	for _, t := range tasks {
		if arg == "" || !strings.HasPrefix(t.ID, arg) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", arg)
		}
		match = t.ID
	}
	if match == "" {
		return "", &tracker.NotFoundError{ID: arg}
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// printTasks renders tasks as a table.
func printTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		done := " "
		status := ""
		if t.Completed {
			done = "x"
			if at, ok := t.ResetsAt(); ok {
				status = "resets " + humanize.RelTime(at, now, "ago", "from now")
			}
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			shortID(t.ID),
			done,
			string(t.Priority),
			t.Text,
			fmt.Sprintf("%dh", t.ResetIntervalHours),
			status,
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "DONE", "PRIORITY", "TASK", "EVERY", "STATUS").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())
}
