package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/console"
)

func newAskCmd() *cobra.Command {
	var (
		flags   configFlags
		name    string
		email   string
		message string
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Submit a visitor question to support",
		Example: `  desk ask --name Ann --email ann@example.com --message "My order never arrived"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			c.SetVisitorDraft(console.VisitorDraft{Name: name, Email: email, Message: message})
			out, err := c.SubmitVisitorChat(context.Background())
			printNotices(cmd.OutOrStdout(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chat #%d is %s\n", out.ChatID, out.Status)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "your name (required)")
	cmd.Flags().StringVar(&email, "email", "", "your email")
	cmd.Flags().StringVarP(&message, "message", "m", "", "your question (required)")
	return cmd
}
