package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/tasks"
)

var (
	taskInput tp.TaskInput
	htmlOut   bool
)

func init() {
	TaskListCommand.Flags().BoolVar(&htmlOut, "html", false, "render the table as HTML")
	TaskPermissionsCommand.Flags().BoolVar(&htmlOut, "html", false, "render the list as HTML")

	for _, cmd := range []*cobra.Command{&TaskCreateCommand, &TaskUpdateCommand} {
		cmd.Flags().StringVarP(&taskInput.Title, "title", "t", "", "title")
		cmd.Flags().StringVarP(&taskInput.Description, "description", "d", "", "description, in markdown")
	}

	addCommands(&TaskCommand,
		&TaskListCommand,
		&TaskShowCommand,
		&TaskCreateCommand,
		&TaskUpdateCommand,
		&TaskDeleteCommand,
		&TaskShareCommand,
		&TaskRevokeCommand,
		&TaskPermissionsCommand,
		&TaskSearchCommand,
	)
	addCommands(&RootCmd, &TaskCommand)
}

func authenticated(cmd *cobra.Command, args []string) {
	setup(cmd, args)
	requireSession(cmd, args)
}

func argID(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errors.New("missing task id", errors.BadRequest())
	}
	id, err := strconv.Atoi(args[i])
	if err != nil || id <= 0 {
		return 0, errors.New(fmt.Sprintf("invalid id %q", args[i]), errors.BadRequest())
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

var TaskCommand = cobra.Command{
	Use:              "task",
	Short:            "Manage tasks",
	Long:             "List, create, update, delete and share tasks",
	PersistentPreRun: authenticated,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var TaskListCommand = cobra.Command{
	Use:   "list",
	Short: "List the tasks you can see, newest first",
	Long:  "List the tasks you can see, newest first, with the actions you are allowed to take",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := app.tasks.LoadTasks(cmd.Context())
		if err != nil {
			return err
		}

		if htmlOut {
			return tasks.RenderTable(cmd.OutOrStdout(), rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tCREATED\tPERMISSION\tACTIONS")
		for _, row := range rows {
			actions := make([]string, len(row.Actions))
			for i, a := range row.Actions {
				actions[i] = string(a)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				row.Task.ID,
				row.Task.Title,
				format.DateTime(row.Task.CreatedAt.Time),
				row.Permission.PermissionType,
				strings.Join(actions, ","),
			)
		}
		return w.Flush()
	},
}

var TaskShowCommand = cobra.Command{
	Use:   "show <id>",
	Short: "Open a task and list its images",
	Long:  "Open a task and list its images",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		task, images, err := app.tasks.Open(cmd.Context(), id)
		if err != nil {
			return err
		}

		return printJSON(cmd, map[string]interface{}{
			"task":   task,
			"images": images,
		})
	},
}

var TaskCreateCommand = cobra.Command{
	Use:   "create",
	Short: "Create a task",
	Long:  "Create a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := app.tasks.Create(cmd.Context(), taskInput)
		if err != nil {
			return err
		}
		return printJSON(cmd, task)
	},
}

var TaskUpdateCommand = cobra.Command{
	Use:   "update <id>",
	Short: "Update the title and description of a task",
	Long:  "Update the title and description of a task. Unset flags keep the current values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		current, err := app.tasks.Task(cmd.Context(), id)
		if err != nil {
			return err
		}
		in := tp.TaskInput{Title: current.Title, Description: current.Description}
		if cmd.Flags().Changed("title") {
			in.Title = taskInput.Title
		}
		if cmd.Flags().Changed("description") {
			in.Description = taskInput.Description
		}

		task, err := app.tasks.Update(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, task)
	},
}

var TaskDeleteCommand = cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Long:  "Delete a task. Only its owner can.",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		if err := app.tasks.Delete(cmd.Context(), id); err != nil {
			return err
		}
		return app.exports.Clear(id)
	},
}

var TaskShareCommand = cobra.Command{
	Use:   "share <id> <username> <read|edit|admin>",
	Short: "Share a task with a user",
	Long:  "Share a task with a user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return app.tasks.Share(cmd.Context(), id, args[1], tp.PermissionType(args[2]))
	},
}

var TaskRevokeCommand = cobra.Command{
	Use:   "revoke <id> <username>",
	Short: "Revoke the access of a user to a task",
	Long:  "Revoke the access of a user to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return app.tasks.Revoke(cmd.Context(), id, args[1])
	},
}

var TaskPermissionsCommand = cobra.Command{
	Use:   "permissions <id>",
	Short: "List the users a task is shared with",
	Long:  "List the users a task is shared with",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		entries, err := app.tasks.Permissions(cmd.Context(), id)
		if err != nil {
			return err
		}

		if htmlOut {
			return tasks.RenderPermissions(cmd.OutOrStdout(), entries)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tPERMISSION\tSHARED BY\tREVOCABLE")
		for _, e := range entries {
			sharedBy := ""
			if e.SharedBy != nil {
				sharedBy = e.SharedBy.Username
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.Username, tasks.PermissionLabel(e.PermissionType), sharedBy, e.Revocable)
		}
		return w.Flush()
	},
}

var TaskSearchCommand = cobra.Command{
	Use:   "search <words>",
	Short: "Search the tasks loaded by the last list",
	Long:  "Search the titles and descriptions of the tasks loaded by the last list",
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := app.tasks.Search(strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, task := range found {
			cmd.Printf("%d\t%s\n", task.ID, task.Title)
		}
		return nil
	},
}
