package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/classifier"
	mcpserver "taskboard/internal/mcp"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"taskboard/internal/ui"
	"time"

	"github.com/spf13/cobra"
)

const commandTimeout = 60 * time.Second

func (r *RootCommand) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web board and the background refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.runtime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.Serve == nil {
				return errors.New("serve: сервер не настроен")
			}
			return rt.Serve(cmd.Context())
		},
	}
}

func (r *RootCommand) listCommand() *cobra.Command {
	var (
		filterRaw string
		fresh     bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks ordered by due date",
		Long: `List tasks ordered by due date, earliest first. Tasks with an unparseable due date
come last. The filter re-derives each task's priority from its due date.

Examples:
  taskboard list
  taskboard list --filter medium --fresh
  taskboard list --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := task.ParseFilter(filterRaw)
			if err != nil {
				return err
			}
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			board, err := rt.Service.Board(ctx, filter, fresh)
			if err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), board, format)
		},
	}

	cmd.Flags().StringVarP(&filterRaw, "filter", "f", "All", "Priority filter: All, High, Medium or Low")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Fetch from the store instead of the cache")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatTable), "Output format: table, json or yaml")
	return cmd
}

type draftFlags struct {
	title       string
	description string
	status      string
	due         string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&d.title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&d.description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&d.status, "status", "s", "", "Workflow stage, e.g. \"Test Planning\"")
	cmd.Flags().StringVar(&d.due, "due", "", "Due date, YYYY-MM-DD")
}

// apply переносит в черновик только явно заданные флаги
func (d *draftFlags) apply(cmd *cobra.Command, draft service.Draft) service.Draft {
	flags := cmd.Flags()
	if flags.Changed("title") {
		draft.Title = d.title
	}
	if flags.Changed("description") {
		draft.Description = d.description
	}
	if flags.Changed("status") {
		draft.Status = task.Stage(d.status)
	}
	if flags.Changed("due") {
		draft.DueDate = d.due
	}
	return draft
}

func (r *RootCommand) addCommand() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.title) == "" {
				return errors.New("--title обязателен")
			}

			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			created, err := rt.Service.Submit(ctx, service.Creating(), flags.apply(cmd, service.Draft{}))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s priority)\n", created.ID, created.Priority)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (r *RootCommand) editCommand() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a task; omitted fields keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			mode, draft, err := rt.Service.BeginEdit(ctx, task.ID(args[0]))
			if err != nil {
				return err
			}

			updated, err := rt.Service.Submit(ctx, mode, flags.apply(cmd, draft))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s priority)\n", updated.ID, updated.Priority)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (r *RootCommand) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if err := rt.Service.Delete(ctx, task.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

func stagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stages <status>",
		Short: "Show the workflow stages reached by a status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := task.Stage(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			for _, view := range classifier.RenderStages(status) {
				mark := " "
				if view.Filled {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %s\n", mark, view.Stage)
			}
			if !status.Valid() {
				fmt.Fprintf(cmd.ErrOrStderr(), "unknown status %q\n", status)
			}
			return nil
		},
	}
}

func classifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <due date>",
		Short: "Print the priority a due date gets today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority := classifier.ClassifyDate(args[0], time.Now())
			if _, ok := classifier.ParseDueDate(args[0]); !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (invalid date)\n", priority)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), priority)
			return nil
		},
	}
}

func (r *RootCommand) tuiCommand() *cobra.Command {
	var filterRaw string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := task.ParseFilter(filterRaw)
			if err != nil {
				return err
			}

			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			return ui.RunBoard(cmd.Context(), rt.Service, filter)
		},
	}

	cmd.Flags().StringVarP(&filterRaw, "filter", "f", "All", "Initial priority filter")
	return cmd
}

func (r *RootCommand) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the board as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			return mcpserver.Serve(mcpserver.NewServer(rt.Service, r.version))
		},
	}
}
