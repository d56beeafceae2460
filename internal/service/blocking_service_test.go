package service

import (
	"context"
	"testing"

	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

func TestBlockAndUnblockKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	moderator := f.principal(t, "3")

	blocked, err := f.blocking.BlockUser(ctx, moderator, "10", BlockInput{Reason: " spam ", Duration: stringPtr("7d")})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !blocked.IsBlocked || *blocked.BlockReason != "spam" || *blocked.BlockDuration != "7d" || *blocked.BlockedByID != "3" {
		t.Fatalf("blocked user = %+v", blocked)
	}
	if _, err := f.resolver.Resolve(ctx, "10"); !apperrors.IsUnauthorized(err) {
		t.Fatalf("blocked user resolved: %v", err)
	}

	unblocked, err := f.blocking.UnblockUser(ctx, f.principal(t, "2"), "10")
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if unblocked.IsBlocked {
		t.Fatal("user still blocked")
	}
	if unblocked.BlockReason == nil || *unblocked.BlockReason != "spam" || unblocked.BlockedAt == nil {
		t.Fatalf("block metadata dropped: %+v", unblocked)
	}
	if _, err := f.resolver.Resolve(ctx, "10"); err != nil {
		t.Fatalf("unblocked user cannot resolve: %v", err)
	}

	entries, err := f.blocking.ListBlockLog(ctx, moderator, "10")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	if entries[0].Action != domain.BlockActionBlock || *entries[0].ActorID != "3" || *entries[0].Reason != "spam" {
		t.Fatalf("block entry = %+v", entries[0])
	}
	if entries[1].Action != domain.BlockActionUnblock || *entries[1].ActorID != "2" {
		t.Fatalf("unblock entry = %+v", entries[1])
	}

	want := []events.EventType{events.EventUserBlocked, events.EventUserUnblocked}
	got := f.events.types()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v", got)
	}
}

func TestBlockOverwritesExistingBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.blocking.BlockUser(ctx, f.principal(t, "3"), "11", BlockInput{Reason: "spam", Duration: stringPtr("1d")}); err != nil {
		t.Fatalf("first block: %v", err)
	}
	second, err := f.blocking.BlockUser(ctx, f.principal(t, "2"), "11", BlockInput{Reason: "fraud", Duration: stringPtr("  ")})
	if err != nil {
		t.Fatalf("second block: %v", err)
	}
	if *second.BlockReason != "fraud" || second.BlockDuration != nil || *second.BlockedByID != "2" {
		t.Fatalf("overwritten block = %+v", second)
	}
}

func TestUnblockNotBlockedIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user, err := f.blocking.UnblockUser(ctx, f.principal(t, "3"), "10")
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if user.IsBlocked {
		t.Fatal("user reported blocked")
	}
	entries, _ := f.blocking.ListBlockLog(ctx, f.principal(t, "3"), "10")
	if len(entries) != 0 || len(f.events.types()) != 0 {
		t.Fatalf("no-op unblock left entries=%d events=%v", len(entries), f.events.types())
	}
}

func TestBlockUserRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		actor  string
		target string
		reason string
		check  func(error) bool
	}{
		{"missing reason", "3", "10", "  ", apperrors.IsValidation},
		{"self", "2", "2", "test", apperrors.IsValidation},
		{"unknown target", "2", "404", "spam", apperrors.IsNotFound},
		{"plain user", "10", "11", "spam", apperrors.IsUnauthorized},
		{"shop staff", "77", "10", "spam", apperrors.IsUnauthorized},
		{"moderator on admin", "3", "2", "spam", apperrors.IsUnauthorized},
		{"head admin on security", "4", "5", "spam", apperrors.IsUnauthorized},
		{"security on owner", "5", "1", "spam", apperrors.IsUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.blocking.BlockUser(ctx, f.principal(t, tt.actor), tt.target, BlockInput{Reason: tt.reason})
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	if _, err := f.blocking.BlockUser(ctx, nil, "10", BlockInput{Reason: "spam"}); !apperrors.IsUnauthenticated(err) {
		t.Fatalf("nil principal: %v", err)
	}

	for _, id := range []string{"2", "3", "10"} {
		user, _ := f.store.Users.GetByID(ctx, id)
		if user.IsBlocked {
			t.Fatalf("user %s blocked by a rejected request", id)
		}
	}

	if _, err := f.blocking.BlockUser(ctx, f.principal(t, "1"), "5", BlockInput{Reason: "audit"}); err != nil {
		t.Fatalf("owner blocking security: %v", err)
	}
	if _, err := f.blocking.BlockUser(ctx, f.principal(t, "3"), "77", BlockInput{Reason: "abuse"}); err != nil {
		t.Fatalf("moderator blocking shop staff: %v", err)
	}
}

func TestBlockAsSystem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user, err := f.blocking.BlockAsSystem(ctx, "10", BlockInput{Reason: "automated fraud signal"})
	if err != nil {
		t.Fatalf("system block: %v", err)
	}
	if !user.IsBlocked || user.BlockedByID != nil {
		t.Fatalf("system-blocked user = %+v", user)
	}
	entries, err := f.blocking.ListBlockLog(ctx, f.principal(t, "2"), "10")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorID != nil {
		t.Fatalf("system block entries = %+v", entries)
	}
	if _, err := f.blocking.BlockAsSystem(ctx, "404", BlockInput{Reason: "x"}); !apperrors.IsNotFound(err) {
		t.Fatalf("system block unknown user: %v", err)
	}
}

func TestListBlockLogRequiresCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for _, actor := range []string{"10", "88"} {
		if _, err := f.blocking.ListBlockLog(ctx, f.principal(t, actor), "11"); !apperrors.IsUnauthorized(err) {
			t.Errorf("actor %s: %v", actor, err)
		}
	}
	if _, err := f.blocking.ListBlockLog(ctx, f.principal(t, "3"), "404"); !apperrors.IsNotFound(err) {
		t.Fatalf("unknown user: %v", err)
	}
}
