package main

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/shell"
	"golang.org/x/term"
)

func newConsoleCmd() *cobra.Command {
	var (
		flags   configFlags
		refresh string
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the interactive support console",
		Long: `Starts in the visitor form. Type "staff" to sign in as an operator or admin.
While signed in the chat list is refreshed in the background on the
console.refresh cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("refresh") {
				cfg.Console.Refresh = refresh
			}
			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sh, err := shell.New(shell.Opts{
				Coordinator:  c,
				Out:          out,
				ReadPassword: passwordPrompt(cmd),
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(out)
			defer cancel()

			if cfg.Console.Refresh != "" {
				sched := cron.New(cron.WithParser(cronParser))
				if _, err := sched.AddFunc(cfg.Console.Refresh, func() { sh.RefreshChats(ctx) }); err != nil {
					return fmt.Errorf("console: refresh schedule: %w", err)
				}
				sched.Start()
				defer sched.Stop()
			}

			return sh.Run(ctx, cmd.InOrStdin())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&refresh, "refresh", "", "cron schedule for background chat refresh (overrides config)")
	return cmd
}

// cronParser accepts standard 5-field expressions and descriptors like @every.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// passwordPrompt reads a password without echo when stdin is a terminal.
// Otherwise it returns nil and the shell expects the password inline.
func passwordPrompt(cmd *cobra.Command) func() (string, error) {
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return func() (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
}
