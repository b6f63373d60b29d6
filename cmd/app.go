package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/areatrip/cli"
	"github.com/grovetools/areatrip/internal/app"
	"github.com/spf13/cobra"
)

// sessionWait bounds how long a command waits for the session file to be
// read before giving up with SESSION_NOT_LOADED.
const sessionWait = 5 * time.Second

// runApp loads the configuration, starts the application and waits for the
// session before calling fn. The context is cancelled on SIGINT or SIGTERM.
func runApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	log := cli.GetLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to close application")
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, sessionWait)
	defer cancel()
	if _, err := a.Session.WaitLoaded(waitCtx); err != nil {
		return err
	}

	return fn(ctx, a)
}
