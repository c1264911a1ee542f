package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

// Repository persists and reads the append-only bid ledger. Entries are
// only ever inserted; there is no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	FindBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	// HighestAccepted returns the accepted entry with the greatest amount,
	// ties broken by sequence. Nil when the item has no accepted bids.
	HighestAccepted(ctx context.Context, itemID uuid.UUID) (*models.Bid, error)
	CountAccepted(ctx context.Context, itemID uuid.UUID) (int64, error)
	History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) ([]models.Bid, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) ([]models.Bid, string, error)
}
