package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/zerosync-co/ghosttext/internal/config"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/server"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve autocomplete requests over a websocket",
	Long: `serve answers sql_autocomplete requests on /ws using the configured
inference provider. Each connection keeps at most one completion running: a
newer request cancels the older one.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmLogger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           charmlog.InfoLevel,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "ghosttext",
		})
		slog.SetDefault(slog.New(charmLogger))

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		if cfg.Debug {
			charmLogger.SetLevel(charmlog.DebugLevel)
		}
		addr := cfg.Server.Address
		if a, _ := cmd.Flags().GetString("address"); a != "" {
			addr = a
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := newInferenceService(ctx, cfg, slog.Default())
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := server.New(svc, addr, slog.Default())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer logging.RecoverPanic("server", stop)
			return srv.Start(gctx)
		})
		g.Go(func() error {
			config.Watch()
			sub := config.Subscribe(gctx)
			for {
				select {
				case <-gctx.Done():
					return nil
				case ev, ok := <-sub:
					if !ok {
						return nil
					}
					if ev.Payload.Debug {
						charmLogger.SetLevel(charmlog.DebugLevel)
					} else {
						charmLogger.SetLevel(charmlog.InfoLevel)
					}
				}
			}
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringP("address", "a", "", "Listen address (default from config, 127.0.0.1:7878)")
}
