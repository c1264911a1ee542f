package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
)

// BidRecord is the wire representation of a ledger entry.
type BidRecord struct {
	ID           uuid.UUID              `json:"id"`
	ItemID       uuid.UUID              `json:"item_id"`
	BidderID     uuid.UUID              `json:"bidder_id"`
	Sequence     int64                  `json:"sequence"`
	AmountUnits  int64                  `json:"amount_units"`
	Status       enums.BidStatus        `json:"status"`
	RejectReason *enums.BidRejectReason `json:"reject_reason,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// HistoryPage holds a newest-first slice of an item's ledger.
// NextBeforeSequence is zero when the ledger has been read to its end.
type HistoryPage struct {
	Bids               []BidRecord `json:"bids"`
	NextBeforeSequence int64       `json:"next_before_sequence,omitempty"`
}

// BidderBidsPage lists a bidder's own entries, newest first.
type BidderBidsPage struct {
	Bids       []BidRecord `json:"bids"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func toRecord(bid models.Bid) BidRecord {
	return BidRecord{
		ID:           bid.ID,
		ItemID:       bid.ItemID,
		BidderID:     bid.BidderID,
		Sequence:     bid.Sequence,
		AmountUnits:  bid.AmountUnits,
		Status:       bid.Status,
		RejectReason: bid.RejectReason,
		CreatedAt:    bid.CreatedAt,
	}
}

func toRecords(bids []models.Bid) []BidRecord {
	records := make([]BidRecord, 0, len(bids))
	for _, bid := range bids {
		records = append(records, toRecord(bid))
	}
	return records
}
