package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs_RedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"user_id", "8c1a6f1e-4a61-4a54-9a63-0d5d3f5c2f10",
		"character", "Maren",
	})
	if len(out) != 6 {
		t.Fatalf("expected 6 values, got %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("expected api_key redacted, got %v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("expected hashed user_id, got %v", out[3])
	}
	if out[5] != "Maren" {
		t.Fatalf("expected plain value untouched, got %v", out[5])
	}
}

func TestSanitizeKVs_OddLengthKeepsTrailingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"document_id", "d1", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	if !looksLikeJWT("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig") {
		t.Fatalf("expected jwt-shaped string to match")
	}
	if looksLikeJWT("Maren swore revenge.") {
		t.Fatalf("prose must not be treated as a token")
	}
}
