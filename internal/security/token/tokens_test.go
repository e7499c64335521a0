package tokens

import (
	"encoding/base64"
	"testing"
)

func TestGenerateOpaqueToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := GenerateOpaqueToken(32)
		if err != nil {
			t.Fatalf("generate err: %v", err)
		}
		if len(tok) != 43 { // 32 bytes en base64url sin padding
			t.Fatalf("unexpected length %d for %q", len(tok), tok)
		}
		if _, err := base64.RawURLEncoding.DecodeString(tok); err != nil {
			t.Fatalf("not base64url: %q", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestSHA256Base64URL(t *testing.T) {
	// SHA-256("abc") conocido.
	got := SHA256Base64URL("abc")
	want := "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
