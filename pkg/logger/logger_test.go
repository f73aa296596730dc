package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Config{})
	logger.Debug().Msg("hidden")
	logger.Info().Str("session_id", "s1").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("invalid json line %q: %v", out, err)
	}
	if line["session_id"] != "s1" || line["message"] != "shown" {
		t.Fatalf("unexpected line: %v", line)
	}
	if _, ok := line["caller"]; !ok {
		t.Fatal("caller missing")
	}
}

func TestNewWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	logger := New(&buf, Config{Debug: true, File: path, MaxSizeMB: 1})
	logger.Debug().Msg("to both")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Fatalf("line missing: file=%q stdout=%q", raw, buf.String())
	}
}
