package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/console"
	"github.com/zulandar/supportdesk/internal/shell"
)

func newWatchCmd() *cobra.Command {
	var (
		flags    configFlags
		login    string
		password string
		schedule string
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in and print the chat list on a schedule",
		Long: `Signs in as a staff member and prints the visible chat list each time the
cron schedule fires. Operators see their own and waiting chats; admins see
all chats. The employee is set offline again on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" || password == "" {
				return fmt.Errorf("watch: --login and --password are required")
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			if schedule == "" {
				schedule = cfg.Console.Refresh
			}
			if schedule == "" {
				schedule = "* * * * *"
			}
			return runWatch(cmd.OutOrStdout(), c, login, password, schedule, once)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&login, "login", "l", "", "staff login")
	cmd.Flags().StringVar(&password, "password", "", "staff password")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (defaults to console.refresh, then every minute)")
	cmd.Flags().BoolVar(&once, "once", false, "print the list once and exit")
	return cmd
}

func runWatch(out io.Writer, c *console.Coordinator, login, password, schedule string, once bool) error {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("watch: schedule %q: %w", schedule, err)
	}

	ctx, cancel := signalContext(out)
	defer cancel()

	if _, err := c.Login(ctx, login, password); err != nil {
		printNotices(out, c)
		return err
	}
	defer func() {
		c.Logout(context.Background())
		printNotices(out, c)
	}()
	printNotices(out, c)

	shell.WriteChats(out, c.Chats())
	if once {
		return nil
	}

	for {
		next := sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
		}
		chats, err := c.RefreshChats(ctx)
		if err != nil {
			printNotices(out, c)
			continue
		}
		fmt.Fprintf(out, "\n%s\n", time.Now().Format("15:04:05"))
		shell.WriteChats(out, chats)
	}
}

func printNotices(out io.Writer, c *console.Coordinator) {
	for _, n := range c.Notices() {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Text)
	}
}
