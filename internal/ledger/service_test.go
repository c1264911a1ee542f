package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type stubLedgerRepo struct {
	bids []models.Bid
}

func (s *stubLedgerRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLedgerRepo) Insert(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	s.bids = append(s.bids, *bid)
	return bid, nil
}

func (s *stubLedgerRepo) FindBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	for i := range s.bids {
		if s.bids[i].ID == id {
			return &s.bids[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedgerRepo) HighestAccepted(ctx context.Context, itemID uuid.UUID) (*models.Bid, error) {
	var top *models.Bid
	for i := range s.bids {
		bid := &s.bids[i]
		if bid.ItemID != itemID || bid.Status != enums.BidStatusAccepted {
			continue
		}
		if top == nil || bid.AmountUnits > top.AmountUnits {
			top = bid
		}
	}
	return top, nil
}

func (s *stubLedgerRepo) CountAccepted(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	for _, bid := range s.bids {
		if bid.ItemID == itemID && bid.Status == enums.BidStatusAccepted {
			count++
		}
	}
	return count, nil
}

func (s *stubLedgerRepo) History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) ([]models.Bid, error) {
	params = params.Normalize()
	var rows []models.Bid
	for i := len(s.bids) - 1; i >= 0; i-- {
		bid := s.bids[i]
		if bid.ItemID != itemID {
			continue
		}
		if params.BeforeSequence > 0 && bid.Sequence >= params.BeforeSequence {
			continue
		}
		rows = append(rows, bid)
		if len(rows) == params.Limit {
			break
		}
	}
	return rows, nil
}

func (s *stubLedgerRepo) ListByBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) ([]models.Bid, string, error) {
	var rows []models.Bid
	for _, bid := range s.bids {
		if bid.BidderID == bidderID {
			rows = append(rows, bid)
		}
	}
	return rows, "", nil
}

type stubItemFinder struct {
	item *models.AuctionItem
}

func (s *stubItemFinder) FindItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	if s.item == nil || s.item.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func TestHistoryPagesBySequence(t *testing.T) {
	itemID := uuid.New()
	repo := &stubLedgerRepo{}
	for seq := int64(1); seq <= 3; seq++ {
		repo.bids = append(repo.bids, models.Bid{
			ID: uuid.New(), ItemID: itemID, BidderID: uuid.New(),
			Sequence: seq, AmountUnits: seq * 100,
			Status: enums.BidStatusAccepted, CreatedAt: time.Now().UTC(),
		})
	}
	svc, err := NewService(repo, &stubItemFinder{item: &models.AuctionItem{ID: itemID}})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	page, err := svc.History(context.Background(), itemID, pagination.SequenceParams{Limit: 2})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(page.Bids) != 2 {
		t.Fatalf("expected 2 bids got %d", len(page.Bids))
	}
	if page.Bids[0].Sequence != 3 || page.Bids[1].Sequence != 2 {
		t.Fatalf("expected newest first, got %+v", page.Bids)
	}
	if page.NextBeforeSequence != 2 {
		t.Fatalf("expected next cursor 2 got %d", page.NextBeforeSequence)
	}

	page, err = svc.History(context.Background(), itemID, pagination.SequenceParams{Limit: 2, BeforeSequence: 2})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(page.Bids) != 1 || page.Bids[0].Sequence != 1 {
		t.Fatalf("unexpected tail page %+v", page.Bids)
	}
	if page.NextBeforeSequence != 0 {
		t.Fatalf("expected exhausted cursor got %d", page.NextBeforeSequence)
	}
}

func TestHistoryUnknownItem(t *testing.T) {
	svc, _ := NewService(&stubLedgerRepo{}, &stubItemFinder{})
	_, err := svc.History(context.Background(), uuid.New(), pagination.SequenceParams{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestHighestAcceptedEmptyLedger(t *testing.T) {
	itemID := uuid.New()
	svc, _ := NewService(&stubLedgerRepo{}, &stubItemFinder{item: &models.AuctionItem{ID: itemID}})
	record, err := svc.HighestAccepted(context.Background(), itemID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record got %+v", record)
	}
}

func TestBidderBidsRequiresIdentity(t *testing.T) {
	svc, _ := NewService(&stubLedgerRepo{}, &stubItemFinder{})
	_, err := svc.BidderBids(context.Background(), uuid.Nil, pagination.Params{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized got %v", err)
	}
}
