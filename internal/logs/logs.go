// Package logs builds the CLI logger: a text handler on the terminal, fanned
// out to the systemd journal when one is reachable.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	Level  string
	Writer io.Writer
	// Journal adds the journal handler even outside a systemd service.
	Journal bool
	// RunID is attached to every record; empty means a fresh id.
	RunID string
}

// ParseLevel accepts debug, info, warn and error; empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("invalid log level: %q (expected: debug|info|warn|error)", s)
}

// NewRunID returns the id that ties logs and trace events of one invocation together.
func NewRunID() string { return uuid.NewString() }

// New builds the logger and returns the run id it stamps on records.
func New(opts Options) (*slog.Logger, string, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, "", err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	var handlers []slog.Handler
	service := isSystemdService()

	// local
	var terminal slog.Handler
	if !service {
		terminal = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
		handlers = append(handlers, terminal)
	}

	// systemd journal
	if service || opts.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		switch {
		case err == nil:
			handlers = append(handlers, journal)
		case terminal != nil:
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		}
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)).With("run", runID), runID, nil
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	return len(parts) >= 3 && strings.HasSuffix(path.Dir(parts[2]), ".service")
}
