package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rcliao/agent-chat/internal/config"
)

func TestNew(t *testing.T) {
	l := New(config.Logging{Level: "debug", Service: "test-svc"})
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.Logging{Level: "info", Service: "test-svc"})

	l.Debug("hidden")
	l.Info("persisted", "parts", 3)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "persisted" {
		t.Errorf("expected msg persisted, got %v", rec["msg"])
	}
	if rec["service"] != "test-svc" {
		t.Errorf("expected service attr, got %v", rec["service"])
	}
	if rec["parts"] != float64(3) {
		t.Errorf("expected parts=3, got %v", rec["parts"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestConversationContext(t *testing.T) {
	ctx := context.Background()

	if got := ConversationID(ctx); got != "" {
		t.Errorf("expected empty conversation ID, got %q", got)
	}

	ctx = WithConversation(ctx, "c1")
	if got := ConversationID(ctx); got != "c1" {
		t.Errorf("expected c1, got %q", got)
	}
}

func TestFromAddsConversation(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.Logging{Level: "info", Service: "svc"})

	if From(context.Background(), base) != base {
		t.Error("expected base logger when context has no conversation")
	}

	From(WithConversation(context.Background(), "c1"), base).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["conversation_id"] != "c1" {
		t.Errorf("expected conversation_id c1, got %v", rec["conversation_id"])
	}
}
