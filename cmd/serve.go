package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/grovetools/areatrip/internal/app"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket bridge for the map widget",
		Long: `Serve the map bridge. The widget connects to /ws, reports area clicks and
receives selection changes. /api/state returns the current snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.Bridge.Addr
				}
				errCh := make(chan error, 1)
				go func() {
					errCh <- a.MapBridge.ListenAndServe(addr)
				}()

				select {
				case err := <-errCh:
					if err == http.ErrServerClosed {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return a.MapBridge.Shutdown(shutdownCtx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: bridge.addr from config)")
	return cmd
}
