package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-logfmt/logfmt"
	"github.com/spf13/cobra"
	"github.com/zerosync-co/ghosttext/internal/db"
	"github.com/zerosync-co/ghosttext/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:          "logs",
	Short:        "Print recent diagnostics",
	Long:         `logs prints the diagnostics stored by previous editor sessions as logfmt, oldest first.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		session, _ := cmd.Flags().GetString("session")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		conn, err := db.Connect(ctx, dataDirectory(cfg))
		if err != nil {
			return err
		}
		defer conn.Close()

		svc := logging.NewService(db.New(conn))
		defer svc.Shutdown()

		var logs []logging.Log
		if session != "" {
			logs, err = svc.ListBySession(ctx, session)
		} else {
			logs, err = svc.ListAll(ctx, limit)
		}
		if err != nil {
			return fmt.Errorf("failed to list logs: %w", err)
		}
		return writeLogs(cmd.OutOrStdout(), logs)
	},
}

// writeLogs prints entries oldest first, one logfmt record per line.
func writeLogs(w io.Writer, logs []logging.Log) error {
	sorted := append([]logging.Log(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	enc := logfmt.NewEncoder(w)
	for _, l := range sorted {
		kv := []any{
			"time", l.Timestamp.Local().Format(time.RFC3339),
			"level", l.Level,
			"msg", l.Message,
		}
		if l.SessionID != "" {
			kv = append(kv, "session_id", l.SessionID)
		}
		keys := make([]string, 0, len(l.Attributes))
		for k := range l.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kv = append(kv, k, l.Attributes[k])
		}
		if err := enc.EncodeKeyvals(kv...); err != nil {
			return err
		}
		if err := enc.EndRecord(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to print")
	logsCmd.Flags().StringP("session", "s", "", "Only print entries from this editor session")
}
