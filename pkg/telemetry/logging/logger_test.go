package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("cycle finished", "cycle_id", "abc", "kept", 7)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "cycle finished" || record["cycle_id"] != "abc" {
		t.Errorf("record = %v", record)
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("snapshot pruned", "snapshot_id", "s1")
	out := buf.String()
	if !strings.Contains(out, "msg=\"snapshot pruned\"") || !strings.Contains(out, "snapshot_id=s1") {
		t.Errorf("output = %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record emitted below warn level: %s", buf.String())
	}
	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn record suppressed")
	}
}

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New with empty config: %v", err)
	}

	logger.Debug("suppressed at default level")
	if buf.Len() != 0 {
		t.Error("default level should be info")
	}
	logger.Info("emitted")
	if err := json.Unmarshal(buf.Bytes(), &map[string]any{}); err != nil {
		t.Errorf("default format should be JSON: %v", err)
	}
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format accepted")
	}
}
