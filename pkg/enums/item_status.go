package enums

import "fmt"

// ItemStatus tracks the lifecycle of an auction item.
type ItemStatus string

const (
	ItemStatusDraft     ItemStatus = "draft"
	ItemStatusPublished ItemStatus = "published"
	ItemStatusOngoing   ItemStatus = "ongoing"
	ItemStatusClosed    ItemStatus = "closed"
	ItemStatusCancelled ItemStatus = "cancelled"
)

var validItemStatuses = []ItemStatus{
	ItemStatusDraft,
	ItemStatusPublished,
	ItemStatusOngoing,
	ItemStatusClosed,
	ItemStatusCancelled,
}

// itemStatusTransitions holds the allowed next statuses per current status.
var itemStatusTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusDraft:     {ItemStatusPublished},
	ItemStatusPublished: {ItemStatusOngoing, ItemStatusCancelled},
	ItemStatusOngoing:   {ItemStatusClosed, ItemStatusCancelled},
	ItemStatusClosed:    {},
	ItemStatusCancelled: {},
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s ItemStatus) IsTerminal() bool {
	return len(itemStatusTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, candidate := range itemStatusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus. The legacy alias
// "scheduled" maps to published.
func ParseItemStatus(value string) (ItemStatus, error) {
	if value == "scheduled" {
		return ItemStatusPublished, nil
	}
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
