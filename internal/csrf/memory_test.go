package csrf

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_IssueConsume(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	tok, err := s.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token issued")
	}

	if !s.Consume(ctx, tok) {
		t.Fatal("first consume should succeed")
	}
	// Un solo uso.
	if s.Consume(ctx, tok) {
		t.Fatal("second consume should fail")
	}
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if s.Consume(ctx, "never-issued") {
		t.Fatal("unknown token consumed")
	}
	if s.Consume(ctx, "") {
		t.Fatal("empty token consumed")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	tok, err := s.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if s.Consume(ctx, tok) {
		t.Fatal("expired token consumed")
	}
}
