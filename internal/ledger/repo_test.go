package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bids := `
CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  bidder_id TEXT NOT NULL,
  sequence INTEGER NOT NULL CHECK (sequence > 0),
  amount_units INTEGER NOT NULL,
  status TEXT NOT NULL,
  reject_reason TEXT,
  created_at DATETIME,
  UNIQUE (item_id, sequence)
);`
	require.NoError(t, db.Exec(bids).Error)
	require.NoError(t, db.Exec(`DELETE FROM bids`).Error)
	return db
}

func seedBid(t *testing.T, db *gorm.DB, itemID, bidderID uuid.UUID, seq, amount int64, status enums.BidStatus, created time.Time) *models.Bid {
	t.Helper()

	bid := &models.Bid{
		ID:          uuid.New(),
		ItemID:      itemID,
		BidderID:    bidderID,
		Sequence:    seq,
		AmountUnits: amount,
		Status:      status,
		CreatedAt:   created,
	}
	if status == enums.BidStatusRejected {
		reason := enums.BidRejectReasonBidTooLow
		bid.RejectReason = &reason
	}
	require.NoError(t, db.Create(bid).Error)
	return bid
}

func TestRepositorySequenceUniquePerItem(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	now := time.Now().UTC()
	seedBid(t, db, itemID, uuid.New(), 1, 100, enums.BidStatusAccepted, now)

	dup := &models.Bid{
		ID:          uuid.New(),
		ItemID:      itemID,
		BidderID:    uuid.New(),
		Sequence:    1,
		AmountUnits: 200,
		Status:      enums.BidStatusAccepted,
		CreatedAt:   now,
	}
	_, err := repo.Insert(ctx, dup)
	require.Error(t, err)

	// The same sequence is fine on a different item.
	other := &models.Bid{
		ID:          uuid.New(),
		ItemID:      uuid.New(),
		BidderID:    uuid.New(),
		Sequence:    1,
		AmountUnits: 200,
		Status:      enums.BidStatusAccepted,
		CreatedAt:   now,
	}
	_, err = repo.Insert(ctx, other)
	require.NoError(t, err)
}

func TestRepositoryHighestAccepted(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	now := time.Now().UTC()
	seedBid(t, db, itemID, uuid.New(), 1, 100, enums.BidStatusAccepted, now)
	top := seedBid(t, db, itemID, uuid.New(), 2, 300, enums.BidStatusAccepted, now)
	seedBid(t, db, itemID, uuid.New(), 3, 250, enums.BidStatusRejected, now)

	got, err := repo.HighestAccepted(ctx, itemID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, top.ID, got.ID)

	count, err := repo.CountAccepted(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	none, err := repo.HighestAccepted(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepositoryHistory_sequenceCursor(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	now := time.Now().UTC()
	for seq := int64(1); seq <= 5; seq++ {
		seedBid(t, db, itemID, uuid.New(), seq, seq*100, enums.BidStatusAccepted, now)
	}

	page1, err := repo.History(ctx, itemID, pagination.SequenceParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, int64(5), page1[0].Sequence)
	assert.Equal(t, int64(4), page1[1].Sequence)

	page2, err := repo.History(ctx, itemID, pagination.SequenceParams{Limit: 2, BeforeSequence: 4})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, int64(3), page2[0].Sequence)
	assert.Equal(t, int64(2), page2[1].Sequence)
}

func TestRepositoryListByBidder(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bidderID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := int64(0); i < 3; i++ {
		seedBid(t, db, uuid.New(), bidderID, 1, 100, enums.BidStatusAccepted, base.Add(time.Duration(i)*time.Minute))
	}
	seedBid(t, db, uuid.New(), uuid.New(), 1, 100, enums.BidStatusAccepted, base)

	rows, next, err := repo.ListByBidder(ctx, bidderID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotEmpty(t, next)
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))

	rest, next, err := repo.ListByBidder(ctx, bidderID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
}
