package registry

import (
	"context"
	"strings"
	"time"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a registry repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.AuctionItem) (*models.AuctionItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	var item models.AuctionItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByLotCode(ctx context.Context, lotCode string) (*models.AuctionItem, error) {
	var item models.AuctionItem
	err := r.db.WithContext(ctx).
		Where("lot_code = ?", lotCode).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	var item models.AuctionItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.AuctionItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.AuctionItem{}).Error
}

func (r *repository) ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) (*ItemList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.AuctionItem{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.OrganizerID != nil {
		query = query.Where("organizer_id = ?", *filters.OrganizerID)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(lot_code) LIKE ?)", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.AuctionItem
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > pageSize {
		last := rows[pageSize-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:pageSize]
	}

	summaries := make([]ItemSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, ItemSummary{
			ID:             row.ID,
			LotCode:        row.LotCode,
			Title:          row.Title,
			Status:         row.Status,
			StartingPrice:  row.StartingPriceUnits,
			CurrentPrice:   row.CurrentPriceUnits,
			IncrementUnits: row.IncrementUnits,
			AuctionStart:   row.AuctionStart,
			AuctionEnd:     row.AuctionEnd,
			ViewCount:      row.ViewCount,
			CreatedAt:      row.CreatedAt,
		})
	}

	return &ItemList{Items: summaries, NextCursor: nextCursor}, nil
}

func (r *repository) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	var rows []models.AuctionItem
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ItemStatusPublished).
		Where("auction_start <= ?", now).
		Order("auction_start ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindDueToClose(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	var rows []models.AuctionItem
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ItemStatusOngoing).
		Where("auction_end <= ?", now).
		Order("auction_end ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AuctionItem{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}
