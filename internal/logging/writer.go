package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
)

var (
	globalMu      sync.RWMutex
	globalService Service
)

// SetService installs the service that records written through
// NewSlogWriter are stored with. Nil detaches it.
func SetService(s Service) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalService = s
}

func GetService() Service {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalService
}

type slogWriter struct{}

// NewSlogWriter returns a writer for slog.TextHandler output. Records are
// stored asynchronously; they are dropped while no service is installed.
func NewSlogWriter() io.Writer {
	return &slogWriter{}
}

func (sw *slogWriter) Write(p []byte) (int, error) {
	entries, err := parseRecords(p)
	for _, entry := range entries {
		svc := GetService()
		if svc == nil {
			continue
		}
		go func(entry Log) {
			if _, err := svc.Create(context.Background(), entry); err != nil {
				// slog would loop back here.
				fmt.Fprintf(os.Stderr, "ERROR [logging.slogWriter]: failed to persist log: %v\n", err)
			}
		}(entry)
	}
	if err != nil {
		return len(p), err
	}
	return len(p), nil
}

// parseRecords decodes logfmt lines such as
// time=2025-06-10T12:34:56.789Z level=INFO msg="request sent" version=3
func parseRecords(p []byte) ([]Log, error) {
	var entries []Log
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		entry := Log{Attributes: make(map[string]string)}
		for d.ScanKeyval() {
			key, value := string(d.Key()), string(d.Value())
			switch key {
			case "time":
				ts, err := time.Parse(time.RFC3339Nano, value)
				if err != nil {
					slog.Error("Failed to parse time in slog writer", "value", value, "error", err)
					ts = time.Now().UTC()
				}
				entry.Timestamp = ts
			case "level":
				entry.Level = strings.ToLower(value)
			case "msg", "message":
				entry.Message = value
			case "session_id":
				entry.SessionID = value
			default:
				entry.Attributes[key] = value
			}
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now()
		}
		entries = append(entries, entry)
	}
	if err := d.Err(); err != nil {
		return entries, fmt.Errorf("logfmt.ScanRecord: %w", err)
	}
	return entries, nil
}
