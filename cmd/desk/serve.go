package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/db"
	"github.com/zulandar/supportdesk/internal/deskserver"
	"github.com/zulandar/supportdesk/internal/notify"
	"github.com/zulandar/supportdesk/internal/notify/discord"
	"github.com/zulandar/supportdesk/internal/notify/slack"
	"github.com/zulandar/supportdesk/internal/notify/telegram"
)

func newServeCmd() *cobra.Command {
	var (
		flags configFlags
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference desk server",
		Long: `Serves the auth, chats, messages, employees and history resources backed
by sqlite or mysql. Tables are migrated and the seed admin is created on start.
New and closed chats are announced on the configured Slack, Discord and
Telegram channels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd, cfg)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", 8095, "port to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	gormDB, err := db.Connect(cfg.Database, cfg.Server.DebugSQL)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if _, err := db.SeedAdmin(gormDB, cfg.Server.SeedAdmin); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.OutOrStdout())
	defer cancel()

	var (
		pub   deskserver.Publisher
		queue *notify.Queue
	)
	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return err
	}
	if notifier != nil {
		queue = notify.NewQueue(notifier, 64)
		queue.Start(ctx)
		pub = queue
	}

	err = deskserver.Start(ctx, deskserver.StartOpts{
		DB:        gormDB,
		Port:      cfg.Server.Port,
		API:       cfg.API,
		Publisher: pub,
		Out:       cmd.OutOrStdout(),
	})
	cancel()
	if queue != nil {
		queue.Wait()
	}
	return err
}

// buildNotifier returns the configured notification channels, or nil when
// none are configured.
func buildNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	var multi notify.Multi
	if cfg.Slack.Enabled() {
		n, err := slack.New(slack.Opts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.ChannelID})
		if err != nil {
			return nil, err
		}
		if err := n.Check(); err != nil {
			log.Printf("serve: %v", err)
		}
		multi = append(multi, n)
	}
	if cfg.Discord.Enabled() {
		n, err := discord.New(discord.Opts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			return nil, err
		}
		multi = append(multi, n)
	}
	if cfg.Telegram.Enabled() {
		n, err := telegram.New(telegram.Opts{BotToken: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChannelID})
		if err != nil {
			return nil, fmt.Errorf("serve: %w", err)
		}
		multi = append(multi, n)
	}
	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}
