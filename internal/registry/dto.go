package registry

import (
	"time"

	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateItemInput carries everything needed to register a draft item.
type CreateItemInput struct {
	LotCode     string
	Title       string
	Description *string
	CategoryID  *uuid.UUID
	SellerID    uuid.UUID
	OrganizerID uuid.UUID
	Method      enums.AuctionMethod

	StartingPriceUnits int64
	IncrementUnits     int64
	DepositUnits       int64
	LimitPriceUnits    *int64

	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	DepositDeadline   *time.Time
	AuctionStart      time.Time
	AuctionEnd        time.Time
	AnnouncementDate  *time.Time
}

// UpdateItemInput holds optional draft fields; nil pointers are untouched.
type UpdateItemInput struct {
	Title       *string
	Description *string
	CategoryID  *uuid.UUID

	StartingPriceUnits *int64
	IncrementUnits     *int64
	DepositUnits       *int64
	LimitPriceUnits    *int64

	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	DepositDeadline   *time.Time
	AuctionStart      *time.Time
	AuctionEnd        *time.Time
	AnnouncementDate  *time.Time
}

// ItemFilters describe the inputs supported by the item list.
type ItemFilters struct {
	Status      *enums.ItemStatus
	CategoryID  *uuid.UUID
	OrganizerID *uuid.UUID
	SellerID    *uuid.UUID
	Query       string
}

// ItemSummary exposes the fields returned in item listings.
type ItemSummary struct {
	ID             uuid.UUID        `json:"id"`
	LotCode        string           `json:"lot_code"`
	Title          string           `json:"title"`
	Status         enums.ItemStatus `json:"status"`
	StartingPrice  int64            `json:"starting_price_units"`
	CurrentPrice   int64            `json:"current_price_units"`
	IncrementUnits int64            `json:"increment_units"`
	AuctionStart   time.Time        `json:"auction_start"`
	AuctionEnd     time.Time        `json:"auction_end"`
	ViewCount      int64            `json:"view_count"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ItemList wraps the paginated items plus the next page cursor.
type ItemList struct {
	Items      []ItemSummary `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Snapshot is the read model served to bidders for a single item.
type Snapshot struct {
	ID              uuid.UUID        `json:"id"`
	LotCode         string           `json:"lot_code"`
	Title           string           `json:"title"`
	Description     *string          `json:"description,omitempty"`
	Status          enums.ItemStatus `json:"status"`
	StartingPrice   int64            `json:"starting_price_units"`
	CurrentPrice    int64            `json:"current_price_units"`
	MinimumNextBid  int64            `json:"minimum_next_bid_units"`
	IncrementUnits  int64            `json:"increment_units"`
	DepositUnits    int64            `json:"deposit_units"`
	LeadingBidderID *uuid.UUID       `json:"leading_bidder_id,omitempty"`
	WinnerBidderID  *uuid.UUID       `json:"winner_bidder_id,omitempty"`
	LastBidSequence int64            `json:"last_bid_sequence"`
	BidCount        int64            `json:"bid_count"`
	QuickBids       []int64          `json:"quick_bid_units,omitempty"`
	AuctionStart    time.Time        `json:"auction_start"`
	AuctionEnd      time.Time        `json:"auction_end"`
	ScheduledEnd    time.Time        `json:"scheduled_end"`
	ViewCount       int64            `json:"view_count"`
}
