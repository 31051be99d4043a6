package telemetry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestErrorWritesJSONLine(t *testing.T) {
	out := captureStdout(t, func() {
		Error("llm.fallback", map[string]any{"model": "m-1", "status": 429})
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload["level"] != "error" || payload["msg"] != "llm.fallback" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["model"] != "m-1" || payload["status"] != float64(429) {
		t.Fatalf("fields missing: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("ts missing")
	}
}
