package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/teamboard/pkg/client"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects and their members",
	}

	cmd.AddCommand(projectCreateCmd())
	cmd.AddCommand(projectJoinCmd())
	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectDeleteCmd())
	cmd.AddCommand(projectRemoveMemberCmd())
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project and print its invitation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			p, err := client.NewStore(c).CreateProject(ctx, args[0], color)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(p)
			}
			fmt.Printf("✅ Created project %s\n", p.Name)
			printProject(p)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "blue", "project color")
	return cmd
}

func projectJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join [code]",
		Short: "Join a project with its invitation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := client.NewStore(c).JoinProject(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			if resp.Joined {
				fmt.Printf("✅ Joined %s\n", resp.Project.Name)
			} else {
				fmt.Printf("Already a member of %s\n", resp.Project.Name)
			}
			return nil
		},
	}
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the projects you own or collaborate on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			projects, err := c.ListProjects(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(projects)
			}
			if len(projects) == 0 {
				fmt.Println("No projects yet")
				return nil
			}
			for _, p := range projects {
				printProject(p)
			}
			return nil
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [project-id]",
		Short: "Delete a project you own, with all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := client.NewStore(c).DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("🗑️  Project deleted")
			return nil
		},
	}
}

func projectRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member [project-id] [user-id]",
		Short: "Remove a collaborator, or leave a project by passing your own id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := client.NewStore(c).RemoveMember(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("✅ Member removed")
			return nil
		},
	}
}

func overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show your project count, collaborators and assigned tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			ov, err := client.NewStore(c).Overview(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(ov)
			}
			fmt.Printf("Projects:       %d\n", ov.ProjectCount)
			fmt.Printf("Collaborators:  %d\n", ov.CollaboratorCount)
			fmt.Printf("Assigned tasks: %d\n", ov.TasksAssignedCount)
			printTasks(ov.TasksAssigned)
			return nil
		},
	}
}
