package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bidhaus/bidhaus-backend/pkg/enums"
)

// Bid is an append-only ledger entry. Sequence is strictly increasing per
// item across accepted and rejected entries alike; rows are never updated
// or deleted once written.
type Bid struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID       uuid.UUID              `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_bids_item_sequence"`
	BidderID     uuid.UUID              `gorm:"column:bidder_id;type:uuid;not null"`
	Sequence     int64                  `gorm:"column:sequence;not null;uniqueIndex:idx_bids_item_sequence"`
	AmountUnits  int64                  `gorm:"column:amount_units;not null"`
	Status       enums.BidStatus        `gorm:"column:status;type:bid_status;not null"`
	RejectReason *enums.BidRejectReason `gorm:"column:reject_reason;type:bid_reject_reason"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
