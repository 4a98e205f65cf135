package actorctx

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "u-1")

	got, ok := UserIDFrom(ctx)
	if !ok || got != "u-1" {
		t.Fatalf("expected u-1, got %q ok=%v", got, ok)
	}
}

func TestUserIDMissingOrEmpty(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatal("expected no user id on a bare context")
	}
	if _, ok := UserIDFrom(WithUserID(context.Background(), "")); ok {
		t.Fatal("empty user id must not count as authenticated")
	}
}
