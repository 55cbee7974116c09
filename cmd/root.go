package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/zerosync-co/ghosttext/internal/channel"
	"github.com/zerosync-co/ghosttext/internal/config"
	"github.com/zerosync-co/ghosttext/internal/db"
	"github.com/zerosync-co/ghosttext/internal/editor"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/suggest"
	"github.com/zerosync-co/ghosttext/internal/tui"
	"github.com/zerosync-co/ghosttext/internal/version"
)

const logRetention = 7 * 24 * time.Hour

// SessionIDHandler tags every record with the editor session.
type SessionIDHandler struct {
	slog.Handler
	sessionID string
}

func (h *SessionIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.sessionID != "" {
		r.AddAttrs(slog.String("session_id", h.sessionID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *SessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SessionIDHandler{Handler: h.Handler.WithAttrs(attrs), sessionID: h.sessionID}
}

func (h *SessionIDHandler) WithGroup(name string) slog.Handler {
	return &SessionIDHandler{Handler: h.Handler.WithGroup(name), sessionID: h.sessionID}
}

var rootCmd = &cobra.Command{
	Use:   "ghosttext",
	Short: "A terminal SQL editor with inline AI suggestions",
	Long: `ghosttext is a terminal editor for SQL that shows inline completions as
ghost text below the caret. Press space to ask for a suggestion, tab to accept
it, and any other key to dismiss it. Suggestions come from a ghosttext server
(see "ghosttext serve") or from a model called in-process.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If the help flag is set, show the help message
		if cmd.Flag("help").Changed {
			return cmd.Help()
		}
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}

		// Setup logging
		sessionID := uuid.NewString()
		lvl := new(slog.LevelVar)
		textHandler := slog.NewTextHandler(logging.NewSlogWriter(), &slog.HandlerOptions{Level: lvl})
		slog.SetDefault(slog.New(&SessionIDHandler{Handler: textHandler, sessionID: sessionID}))

		cfg, err := loadConfig(cmd, lvl)
		if err != nil {
			return err
		}
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Suggest.Endpoint = endpoint
		}
		if cmd.Flags().Changed("context-id") {
			cfg.Suggest.ContextID, _ = cmd.Flags().GetInt("context-id")
		}

		path, _ := cmd.Flags().GetString("file")
		buf, err := loadBuffer(path)
		if err != nil {
			return err
		}
		piped, hasPiped := checkStdinPipe()
		if hasPiped {
			buf.SetValue(piped)
		}

		// Create main context for the application
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Connect DB, this will also run migrations
		conn, err := db.Connect(ctx, dataDirectory(cfg))
		if err != nil {
			return err
		}
		defer conn.Close()

		logs := logging.NewService(db.New(conn))
		logging.SetService(logs)
		defer logs.Shutdown()
		if n, err := logs.Prune(ctx, time.Now().Add(-logRetention)); err != nil {
			slog.Warn("Failed to prune diagnostics", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned diagnostics", "count", n)
		}

		ch, closeChannel, err := newChannel(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeChannel()

		opts := tui.SuggestOptions(cfg.Suggest)
		opts.Logger = slog.Default()
		model := suggest.New(ch, opts)

		// Set up the TUI
		zone.NewGlobal()
		programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
		if hasPiped {
			programOpts = append(programOpts, tea.WithInputTTY())
		}
		program := tea.NewProgram(
			tui.New(tui.Options{
				Buffer:    buf,
				Suggest:   model,
				Path:      path,
				SessionID: sessionID,
			}),
			programOpts...,
		)

		config.Watch()

		// Setup the subscriptions, this will send service events to the TUI
		msgs, cancelSubs := setupSubscriptions(ctx, ch, logs)

		// Create a context for the TUI message handler
		tuiCtx, tuiCancel := context.WithCancel(ctx)
		var tuiWg sync.WaitGroup
		tuiWg.Add(1)

		// Set up message handling for the TUI
		go func() {
			defer tuiWg.Done()
			defer logging.RecoverPanic("TUI-message-handler", func() {
				attemptTUIRecovery(program)
			})

			for {
				select {
				case <-tuiCtx.Done():
					slog.Debug("TUI message handler shutting down")
					return
				case msg, ok := <-msgs:
					if !ok {
						slog.Debug("TUI message channel closed")
						return
					}
					program.Send(msg)
				}
			}
		}()

		cleanup := func() {
			cancelSubs()
			tuiCancel()
			tuiWg.Wait()
			slog.Debug("All goroutines cleaned up")
		}

		// Run the TUI
		result, err := program.Run()
		cleanup()

		if err != nil {
			slog.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}

		slog.Debug("TUI exited", "result", result)
		return nil
	},
}

func loadConfig(cmd *cobra.Command, lvl *slog.LevelVar) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return nil, fmt.Errorf("failed to change directory: %v", err)
		}
	}
	c, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %v", err)
	}
	return config.Load(c, debug, lvl)
}

func dataDirectory(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Data.Directory) {
		return cfg.Data.Directory
	}
	return filepath.Join(cfg.WorkingDir, cfg.Data.Directory)
}

// loadBuffer reads path into a new buffer. A missing file starts empty and
// is created on first save.
func loadBuffer(path string) (*editor.Buffer, error) {
	if path == "" {
		return editor.New(""), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return editor.New(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	buf := editor.New(string(data))
	buf.MoveTo(suggest.Position{})
	return buf, nil
}

// newChannel connects to the configured server, or answers requests
// in-process when no endpoint is set.
func newChannel(ctx context.Context, cfg *config.Config) (channel.Channel, func(), error) {
	if cfg.Suggest.Endpoint != "" {
		client := channel.NewClient(cfg.Suggest.Endpoint, channel.WithClientLogger(slog.Default()))
		return client, func() { client.Close() }, nil
	}

	svc, err := newInferenceService(ctx, cfg, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	lb := channel.NewLoopback(svc, slog.Default())
	return lb, func() {
		lb.Close()
		svc.Close()
	}, nil
}

// checkStdinPipe returns piped stdin, if any.
func checkStdinPipe() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", false
	}
	if stat.Mode()&os.ModeCharDevice != 0 || stat.Mode()&os.ModeNamedPipe == 0 {
		return "", false
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// attemptTUIRecovery tries to recover the TUI after a panic
func attemptTUIRecovery(program *tea.Program) {
	slog.Info("Attempting to recover TUI after panic")
	program.Quit()
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	outputCh chan<- tea.Msg,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic(fmt.Sprintf("subscription-%s", name), nil)

		subCh := subscriber(ctx)
		if subCh == nil {
			slog.Warn("subscription channel is nil", "name", name)
			return
		}

		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					slog.Debug("subscription channel closed", "name", name)
					return
				}

				var msg tea.Msg = event

				select {
				case outputCh <- msg:
				case <-time.After(2 * time.Second):
					slog.Warn("message dropped due to slow consumer", "name", name)
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func setupSubscriptions(parentCtx context.Context, ch channel.Channel, logs logging.Service) (chan tea.Msg, func()) {
	out := make(chan tea.Msg, 100)

	wg := sync.WaitGroup{}
	ctx, cancel := context.WithCancel(parentCtx) // Inherit from parent context

	setupSubscriber(ctx, &wg, "suggestions", ch.Subscribe, out)
	setupSubscriber(ctx, &wg, "logging", logs.Subscribe, out)
	setupSubscriber(ctx, &wg, "config", config.Subscribe, out)

	cleanupFunc := func() {
		cancel() // Signal all goroutines to stop

		waitCh := make(chan struct{})
		go func() {
			defer logging.RecoverPanic("subscription-cleanup", nil)
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-waitCh:
			close(out) // Only close after all writers are confirmed done
		case <-time.After(5 * time.Second):
			slog.Warn("Timed out waiting for some subscription goroutines to complete")
			close(out)
		}
	}
	return out, cleanupFunc
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.Flags().StringP("file", "f", "", "File to edit")
	rootCmd.Flags().StringP("endpoint", "e", "", "Websocket URL of a ghosttext server")
	rootCmd.Flags().Int("context-id", 0, "Context identifier sent with every suggestion request")

	rootCmd.AddCommand(serveCmd, logsCmd)
}
