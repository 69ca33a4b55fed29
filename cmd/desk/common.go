package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/console"
	"github.com/zulandar/supportdesk/internal/deskapi"
)

// configFlags are shared by every command that reads desk.yaml.
type configFlags struct {
	path    string
	envFile string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "path to desk config file (defaults and DESK_* env when empty)")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file with DESK_* overrides")
}

func (f *configFlags) load() (*config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var (
		cfg *config.Config
		err error
	)
	if f.path == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newCoordinator builds a console coordinator talking to the configured
// desk server.
func newCoordinator(cfg *config.Config) (*console.Coordinator, error) {
	client, err := deskapi.NewFromConfig(cfg.API)
	if err != nil {
		return nil, err
	}
	return console.New(console.Options{Store: client})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(out io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
