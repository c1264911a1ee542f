package payloads

import (
	"time"

	"github.com/google/uuid"
)

// ItemPublishedEvent signals a draft moved into the published state.
type ItemPublishedEvent struct {
	ItemID        uuid.UUID `json:"item_id"`
	LotCode       string    `json:"lot_code"`
	AuctionStart  time.Time `json:"auction_start"`
	AuctionEnd    time.Time `json:"auction_end"`
	StartingPrice int64     `json:"starting_price_units"`
}

// ItemCancelledEvent is emitted when an organizer withdraws an item.
type ItemCancelledEvent struct {
	ItemID      uuid.UUID `json:"item_id"`
	LotCode     string    `json:"lot_code"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// AuctionStartedEvent marks the transition from published to ongoing.
type AuctionStartedEvent struct {
	ItemID     uuid.UUID `json:"item_id"`
	LotCode    string    `json:"lot_code"`
	StartedAt  time.Time `json:"started_at"`
	AuctionEnd time.Time `json:"auction_end"`
}

// BidAcceptedEvent carries the ledger entry for an accepted bid.
type BidAcceptedEvent struct {
	ItemID      uuid.UUID `json:"item_id"`
	BidID       uuid.UUID `json:"bid_id"`
	BidderID    uuid.UUID `json:"bidder_id"`
	Sequence    int64     `json:"sequence"`
	AmountUnits int64     `json:"amount_units"`
	AcceptedAt  time.Time `json:"accepted_at"`
}

// AuctionExtendedEvent reports an anti-snipe extension of the end instant.
type AuctionExtendedEvent struct {
	ItemID        uuid.UUID `json:"item_id"`
	PreviousEnd   time.Time `json:"previous_end"`
	NewEnd        time.Time `json:"new_end"`
	TriggerBidID  uuid.UUID `json:"trigger_bid_id"`
	ExtendedCount int64     `json:"extended_count"`
}

// AuctionClosedEvent finalizes an auction; winner fields are empty when the
// auction closed without an accepted bid.
type AuctionClosedEvent struct {
	ItemID           uuid.UUID  `json:"item_id"`
	LotCode          string     `json:"lot_code"`
	ClosedAt         time.Time  `json:"closed_at"`
	WinnerBidderID   *uuid.UUID `json:"winner_bidder_id,omitempty"`
	WinningBidUnits  *int64     `json:"winning_bid_units,omitempty"`
	WinningSequence  *int64     `json:"winning_sequence,omitempty"`
	AcceptedBidCount int64      `json:"accepted_bid_count"`
}

// NotificationRequestedEvent tells downstream systems to alert a bidder.
type NotificationRequestedEvent struct {
	ItemID   uuid.UUID `json:"item_id"`
	BidderID uuid.UUID `json:"bidder_id"`
	Type     string    `json:"type"`
}
