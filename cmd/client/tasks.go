package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/pkg/client"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Create, edit, move and list tasks",
	}

	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskEditCmd())
	cmd.AddCommand(taskMoveCmd())
	cmd.AddCommand(taskDeleteCmd())
	cmd.AddCommand(taskListCmd())
	return cmd
}

func taskCreateCmd() *cobra.Command {
	req := &taskboardv1.CreateTaskRequest{}

	cmd := &cobra.Command{
		Use:   "create [project-id] [title]",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			req.ProjectId = args[0]
			req.Title = args[1]
			resp, err := c.CreateTask(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp.Task)
			}
			fmt.Printf("✅ Created task %s in %s at position %d\n", resp.Task.Id, resp.Task.Status, resp.Task.Position)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Description, "description", "", "task description")
	cmd.Flags().StringVar(&req.Status, "status", "", "backlog, in_progress or done")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&req.AssigneeId, "assignee", "", "member user id")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

var editFlags = map[string]client.Field{
	"title":       client.FieldTitle,
	"description": client.FieldDescription,
	"status":      client.FieldStatus,
	"priority":    client.FieldPriority,
	"assignee":    client.FieldAssignee,
	"start":       client.FieldStartDate,
	"end":         client.FieldEndDate,
}

func taskEditCmd() *cobra.Command {
	var (
		projectID string
		stream    string
	)

	cmd := &cobra.Command{
		Use:   "edit [task-id]",
		Short: "Edit task fields; an empty value clears assignee and dates",
		Long: `Edit task fields.

With flags, the edit is applied optimistically and sent once.

With --stream FIELD, every line read from stdin becomes the new value of
FIELD. Lines arriving within the debounce window collapse into a single
request; stdin EOF flushes whatever is still pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]

			c, err := client.Dial(serverAddr, token)
			if err != nil {
				return err
			}
			defer c.Close()

			store := client.NewStore(c)
			loadCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			err = store.Load(loadCtx, projectID)
			cancel()
			if err != nil {
				return err
			}

			if stream != "" {
				return streamEdits(cmd.Context(), store, taskID, client.Field(stream))
			}

			fields := client.Fields{}
			for name, field := range editFlags {
				if cmd.Flags().Changed(name) {
					value, _ := cmd.Flags().GetString(name)
					fields[field] = value
				}
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to change; pass at least one field flag or --stream")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := store.Update(ctx, taskID, fields); err != nil {
				return err
			}
			t, _ := store.Task(taskID)
			if asJSON {
				return printJSON(t)
			}
			fmt.Printf("✅ Updated %s\n", taskID)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project the task belongs to")
	_ = cmd.MarkFlagRequired("project")
	cmd.Flags().StringVar(&stream, "stream", "", "read successive values of this field from stdin")
	for name := range editFlags {
		cmd.Flags().String(name, "", "new "+name)
	}
	return cmd
}

func streamEdits(ctx context.Context, store *client.Store, taskID string, field client.Field) error {
	coalescer := client.NewCoalescer(store, debounce)
	coalescer.OnError(func(taskID string, err error) {
		fmt.Fprintf(os.Stderr, "❌ %s: %s\n", taskID, describe(err))
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := coalescer.Stage(taskID, field, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	flushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := coalescer.Close(flushCtx); err != nil {
		return err
	}

	t, ok := store.Confirmed(taskID)
	if !ok {
		return nil
	}
	if asJSON {
		return printJSON(t)
	}
	fmt.Printf("✅ %s saved\n", field)
	return nil
}

func taskMoveCmd() *cobra.Command {
	var (
		projectID string
		position  int32
	)

	cmd := &cobra.Command{
		Use:   "move [task-id] [status]",
		Short: "Move a task to a column, appending unless --position is set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			store := client.NewStore(c)
			if err := store.Load(ctx, projectID); err != nil {
				return err
			}

			var pos *int32
			if cmd.Flags().Changed("position") {
				pos = &position
			}
			if err := store.Move(ctx, args[0], args[1], pos); err != nil {
				return err
			}

			t, _ := store.Task(args[0])
			column := store.Column(projectID, t.Status)
			if asJSON {
				return printJSON(column)
			}
			printTasks(column)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project the task belongs to")
	_ = cmd.MarkFlagRequired("project")
	cmd.Flags().Int32Var(&position, "position", 0, "zero-based position in the destination column")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := c.DeleteTask(ctx, &taskboardv1.DeleteTaskRequest{TaskId: args[0]}); err != nil {
				return err
			}
			fmt.Println("🗑️  Task deleted")
			return nil
		},
	}
}

func taskListCmd() *cobra.Command {
	req := &taskboardv1.ListTasksRequest{}

	cmd := &cobra.Command{
		Use:   "list [project-id]",
		Short: "Show a project's board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			req.ProjectId = args[0]
			resp, err := c.ListTasks(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp.Tasks)
			}
			if len(resp.Tasks) == 0 {
				fmt.Println("No tasks")
				return nil
			}
			printTasks(resp.Tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Status, "status", "", "only this column")
	cmd.Flags().StringVar(&req.AssigneeId, "assignee", "", "only tasks assigned to this user id")
	return cmd
}
