package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("assetdb", Warn, &buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info lines to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown 3") || !strings.Contains(out, "shown 4") {
		t.Errorf("Expected warn/error lines, got %q", out)
	}
	if !strings.Contains(out, "[assetdb]") {
		t.Errorf("Expected service name in prefix, got %q", out)
	}
}

func TestLogger_NamedSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("assetdb", Debug, &buf)

	l.Named("watch").Info("started")

	if !strings.Contains(buf.String(), "[assetdb/watch] started") {
		t.Errorf("Expected named prefix, got %q", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("assetdb", Debug, &buf)
	l.JSON = true

	l.Error("failed %s", "x")

	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if entry.Level != "ERROR" || entry.Message != "failed x" || entry.Service != "assetdb" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestLogger_MessageWithoutArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("", Debug, &buf)

	l.Warn("this is not 100% work")

	if !strings.Contains(buf.String(), "100% work") {
		t.Errorf("Expected raw message, got %q", buf.String())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{"", Info, false},
		{"warning", Warn, false},
		{"error", Error, false},
		{"off", Off, false},
		{"loud", Info, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_OffIsSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("assetdb", Off, &buf)

	l.Error("never")

	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestFileLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "assetdb.log")

	var terminal bytes.Buffer
	l := NewFileLogger("assetdb", Info, file, DefaultRotation, &terminal)
	l.Named("db").Info("mounted %s", "assets")

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	buf, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(buf), "[assetdb/db] mounted assets") {
		t.Errorf("Expected line in log file, got %q", buf)
	}
	if !strings.Contains(terminal.String(), "mounted assets") {
		t.Errorf("Expected line mirrored to terminal, got %q", terminal.String())
	}
}
