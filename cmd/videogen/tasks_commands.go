package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"videogen/internal/preflight"
	"videogen/internal/taskstore"
)

func newTasksCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect the generation job table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTasksListCommand(cmdCtx))
	cmd.AddCommand(newTasksHealthCommand(cmdCtx))
	return cmd
}

func newTasksListCommand(cmdCtx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taskstore.Open(cfg.Paths.TaskTable)
			if err != nil {
				return err
			}
			defer store.Close()

			records := store.All()
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				if project != "" && rec.Project != project {
					continue
				}
				rows = append(rows, []string{
					rec.JobID,
					rec.Project,
					rec.Target,
					displayStatus(rec.Status),
					strconv.Itoa(rec.PollCount),
					formatAge(rec.UpdatedAt),
					truncate(rec.Error, 48),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs tracked.")
				return nil
			}

			printTable(cmd.OutOrStdout(),
				[]string{"Job", "Project", "Target", "Status", "Polls", "Updated", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only show jobs for one project")
	return cmd
}

func newTasksHealthCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Summarize job table state and environment checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := taskstore.Open(cfg.Paths.TaskTable)
			if err != nil {
				return err
			}
			defer store.Close()

			summary := store.Summarize()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task table: %s\n", store.Path())
			fmt.Fprintf(out, "  total=%d active=%d succeeded=%d failed=%d\n\n",
				summary.Total, summary.Active, summary.Succeeded, summary.Failed)

			printPreflight(out, preflight.Run(cfg))
			return nil
		},
	}
}

func printPreflight(w io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "FAIL"
		if r.Passed {
			state = "ok"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	printTable(w, []string{"Check", "State", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft})
}

// displayStatus renders a status for humans, e.g. "Succeeded" stays as-is
// while any future multi-word status gains title casing.
func displayStatus(status taskstore.Status) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}

func formatAge(unixSeconds int64) string {
	if unixSeconds == 0 {
		return "-"
	}
	age := time.Since(time.Unix(unixSeconds, 0)).Round(time.Second)
	if age < 0 {
		age = 0
	}
	return age.String() + " ago"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
