package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/config"
	"github.com/gurkanbulca/teamboard/pkg/client"
)

var Version = "dev"

var (
	serverAddr string
	token      string
	asJSON     bool
	timeout    time.Duration
	debounce   time.Duration
)

func main() {
	cfg := config.LoadClient()

	rootCmd := &cobra.Command{
		Use:           "teamboard",
		Short:         "Teamboard - collaborative task board client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", cfg.Addr, "server address (TASKBOARD_ADDR)")
	rootCmd.PersistentFlags().StringVar(&token, "token", cfg.Token, "session token (TASKBOARD_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-command timeout")
	rootCmd.PersistentFlags().DurationVar(&debounce, "debounce", cfg.DebounceWindow, "quiet window for streamed edits (DEBOUNCE_WINDOW)")

	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(overviewCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// connect dials the server with the current session token
func connect(cmd *cobra.Command) (*client.Client, context.Context, func(), error) {
	c, err := client.Dial(serverAddr, token)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return c, ctx, func() {
		cancel()
		_ = c.Close()
	}, nil
}

// describe renders gRPC failures as "Code: message"
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProject(p *taskboardv1.Project) {
	fmt.Printf("%s  %-24s  %-8s  tasks=%d", p.Id, p.Name, p.Color, p.TaskCount)
	if p.InvitationCode != "" {
		fmt.Printf("  code=%s", p.InvitationCode)
	}
	fmt.Println()
}

func printTasks(tasks []*taskboardv1.Task) {
	current := ""
	for _, t := range tasks {
		if t.Status != current {
			current = t.Status
			fmt.Printf("\n%s\n%s\n", strings.ToUpper(current), strings.Repeat("-", 40))
		}
		fmt.Printf("%2d. %s  %s [%s]", t.Position, t.Id, t.Title, t.Priority)
		if t.AssigneeId != "" {
			fmt.Printf(" @%s", t.AssigneeId)
		}
		if t.StartDate != "" || t.EndDate != "" {
			fmt.Printf(" (%s..%s)", t.StartDate, t.EndDate)
		}
		fmt.Println()
	}
}
