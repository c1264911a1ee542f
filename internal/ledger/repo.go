package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *repository) FindBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repository) HighestAccepted(ctx context.Context, itemID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Where("status = ?", enums.BidStatusAccepted).
		Order("amount_units DESC").
		Order("sequence DESC").
		First(&bid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *repository) CountAccepted(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("item_id = ?", itemID).
		Where("status = ?", enums.BidStatusAccepted).
		Count(&count).Error
	return count, err
}

func (r *repository) History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) ([]models.Bid, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).
		Where("item_id = ?", itemID)
	if params.BeforeSequence > 0 {
		query = query.Where("sequence < ?", params.BeforeSequence)
	}

	var rows []models.Bid
	err := query.
		Order("sequence DESC").
		Limit(params.Limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) ([]models.Bid, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("bidder_id = ?", bidderID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Bid
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > pageSize {
		last := rows[pageSize-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:pageSize]
	}
	return rows, nextCursor, nil
}
