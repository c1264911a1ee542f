package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bidhaus/bidhaus-backend/pkg/enums"
)

// AuctionItem is the registry row for a single auctioned lot. AuctionEnd is
// the live end instant and moves forward under anti-snipe extensions;
// ScheduledEnd never changes after publication and bounds how far the end
// may drift.
type AuctionItem struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotCode     string              `gorm:"column:lot_code;not null;uniqueIndex"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	OrganizerID uuid.UUID           `gorm:"column:organizer_id;type:uuid;not null"`
	Method      enums.AuctionMethod `gorm:"column:method;type:text;not null;default:'open_bidding'"`
	Status      enums.ItemStatus    `gorm:"column:status;type:item_status;not null;default:'draft'"`

	StartingPriceUnits int64  `gorm:"column:starting_price_units;not null"`
	IncrementUnits     int64  `gorm:"column:increment_units;not null"`
	DepositUnits       int64  `gorm:"column:deposit_units;not null;default:0"`
	LimitPriceUnits    *int64 `gorm:"column:limit_price_units"`

	CurrentPriceUnits int64      `gorm:"column:current_price_units;not null;default:0"`
	LeadingBidderID   *uuid.UUID `gorm:"column:leading_bidder_id;type:uuid"`
	WinnerBidderID    *uuid.UUID `gorm:"column:winner_bidder_id;type:uuid"`
	LastBidSequence   int64      `gorm:"column:last_bid_sequence;not null;default:0"`
	BidCount          int64      `gorm:"column:bid_count;not null;default:0"`
	ExtendedCount     int64      `gorm:"column:extended_count;not null;default:0"`

	RegistrationStart *time.Time `gorm:"column:registration_start"`
	RegistrationEnd   *time.Time `gorm:"column:registration_end"`
	DepositDeadline   *time.Time `gorm:"column:deposit_deadline"`
	AuctionStart      time.Time  `gorm:"column:auction_start;not null"`
	AuctionEnd        time.Time  `gorm:"column:auction_end;not null"`
	ScheduledEnd      time.Time  `gorm:"column:scheduled_end;not null"`
	AnnouncementDate  *time.Time `gorm:"column:announcement_date"`

	ViewCount   int64      `gorm:"column:view_count;not null;default:0"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	ClosedAt    *time.Time `gorm:"column:closed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
