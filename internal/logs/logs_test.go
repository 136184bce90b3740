package logs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelWarn,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerStampsRunID(t *testing.T) {
	if isSystemdService() {
		t.Skip("terminal handler is disabled under systemd")
	}
	var buf bytes.Buffer
	log, id, err := New(Options{Level: "info", Writer: &buf, RunID: "run-42"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "run-42" {
		t.Fatalf("run id = %q", id)
	}
	log.Debug("hidden")
	log.Info("loaded", "module", "pkg.mod")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record passed the info level:\n%s", out)
	}
	if !strings.Contains(out, "run=run-42") || !strings.Contains(out, "module=pkg.mod") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFreshRunID(t *testing.T) {
	if NewRunID() == NewRunID() {
		t.Error("run ids repeat")
	}
	_, id, err := New(Options{Writer: &bytes.Buffer{}})
	if err != nil || len(id) != 36 {
		t.Errorf("id %q, err %v", id, err)
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("run.id-x"); got != "RUN_ID_X" {
		t.Errorf("toJournalKey = %q", got)
	}
}
