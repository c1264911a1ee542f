package enums

import "testing"

func TestItemStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ItemStatus
		to      ItemStatus
		allowed bool
	}{
		{ItemStatusDraft, ItemStatusPublished, true},
		{ItemStatusDraft, ItemStatusCancelled, false},
		{ItemStatusDraft, ItemStatusOngoing, false},
		{ItemStatusPublished, ItemStatusOngoing, true},
		{ItemStatusPublished, ItemStatusCancelled, true},
		{ItemStatusPublished, ItemStatusClosed, false},
		{ItemStatusOngoing, ItemStatusClosed, true},
		{ItemStatusOngoing, ItemStatusCancelled, true},
		{ItemStatusOngoing, ItemStatusPublished, false},
		{ItemStatusClosed, ItemStatusOngoing, false},
		{ItemStatusCancelled, ItemStatusPublished, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestItemStatusTerminal(t *testing.T) {
	if !ItemStatusClosed.IsTerminal() || !ItemStatusCancelled.IsTerminal() {
		t.Fatalf("closed and cancelled should be terminal")
	}
	if ItemStatusOngoing.IsTerminal() {
		t.Fatalf("ongoing should not be terminal")
	}
	if ItemStatus("bogus").IsTerminal() {
		t.Fatalf("unknown status should not be terminal")
	}
}

func TestParseItemStatusScheduledAlias(t *testing.T) {
	got, err := ParseItemStatus("scheduled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ItemStatusPublished {
		t.Fatalf("expected scheduled to alias published, got %s", got)
	}

	if _, err := ParseItemStatus("bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
