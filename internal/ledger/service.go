package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type itemFinder interface {
	FindItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error)
}

// Service exposes the ledger's read side. Writes go through the bid
// admission engine, which appends entries inside its own transaction.
type Service interface {
	History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) (*HistoryPage, error)
	BidderBids(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*BidderBidsPage, error)
	HighestAccepted(ctx context.Context, itemID uuid.UUID) (*BidRecord, error)
}

type service struct {
	repo  Repository
	items itemFinder
}

// NewService builds the ledger read service.
func NewService(repo Repository, items itemFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item finder required")
	}
	return &service{repo: repo, items: items}, nil
}

func (s *service) History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) (*HistoryPage, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if _, err := s.items.FindItem(ctx, itemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
	}

	params = params.Normalize()
	rows, err := s.repo.History(ctx, itemID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid history")
	}

	page := &HistoryPage{Bids: toRecords(rows)}
	if len(rows) == params.Limit {
		page.NextBeforeSequence = rows[len(rows)-1].Sequence
	}
	return page, nil
}

func (s *service) BidderBids(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*BidderBidsPage, error) {
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, nextCursor, err := s.repo.ListByBidder(ctx, bidderID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bidder bids")
	}
	return &BidderBidsPage{Bids: toRecords(rows), NextCursor: nextCursor}, nil
}

func (s *service) HighestAccepted(ctx context.Context, itemID uuid.UUID) (*BidRecord, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	bid, err := s.repo.HighestAccepted(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load highest bid")
	}
	if bid == nil {
		return nil, nil
	}
	record := toRecord(*bid)
	return &record, nil
}
