package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [handle] [password]",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			user, err := c.Register(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(user)
			}
			fmt.Printf("✅ Registered %s (%s)\n", user.Handle, user.Id)
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [handle] [password]",
		Short: "Start a session and print its token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := c.Login(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			fmt.Printf("✅ Logged in as %s, session valid until %s\n", resp.User.Handle, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
			fmt.Printf("export TASKBOARD_TOKEN=%s\n", resp.Token)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := c.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("👋 Logged out; unset TASKBOARD_TOKEN")
			return nil
		},
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account",
	}

	var confirm bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account, your projects and their tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to delete the account without --yes")
			}
			c, ctx, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := c.DeleteAccount(ctx); err != nil {
				return err
			}
			fmt.Println("🗑️  Account deleted")
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&confirm, "yes", false, "confirm the deletion")

	cmd.AddCommand(deleteCmd)
	return cmd
}
