package registry

import (
	"context"
	"time"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the auction item registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.AuctionItem) (*models.AuctionItem, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error)
	FindItemByLotCode(ctx context.Context, lotCode string) (*models.AuctionItem, error)
	// FindItemForUpdate locks the row until the surrounding transaction ends.
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) (*ItemList, error)
	FindDueToStart(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error)
	FindDueToClose(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}
