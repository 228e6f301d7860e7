package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatter_StringSlice(t *testing.T) {
	var buf bytes.Buffer
	f := &TextFormatter{}

	if err := f.FormatTo(&buf, []string{"pdf-to-word", "compress-pdf"}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "pdf-to-word" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}

	if err := f.FormatTo(&buf, map[string]int{"count": 3}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded["count"] != 3 {
		t.Errorf("Unexpected decoded value %v", decoded)
	}
}

func TestNewFormatter(t *testing.T) {
	if _, err := NewFormatter(FormatText); err != nil {
		t.Errorf("Expected text formatter, got error %v", err)
	}
	if _, err := NewFormatter(""); err != nil {
		t.Errorf("Expected default formatter, got error %v", err)
	}
	if _, err := NewFormatter("yaml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
