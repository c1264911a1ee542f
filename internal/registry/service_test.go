package registry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type stubRegistryRepo struct {
	item       *models.AuctionItem
	updates    map[string]any
	deleted    bool
	viewBumped bool
	createErr  error
}

func (s *stubRegistryRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRegistryRepo) CreateItem(ctx context.Context, item *models.AuctionItem) (*models.AuctionItem, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.item = item
	return item, nil
}

func (s *stubRegistryRepo) FindItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	if s.item == nil || s.item.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubRegistryRepo) FindItemByLotCode(ctx context.Context, lotCode string) (*models.AuctionItem, error) {
	if s.item == nil || s.item.LotCode != lotCode {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubRegistryRepo) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	return s.FindItem(ctx, id)
}

func (s *stubRegistryRepo) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.item == nil || s.item.ID != id {
		return gorm.ErrRecordNotFound
	}
	s.updates = updates
	if status, ok := updates["status"].(enums.ItemStatus); ok {
		s.item.Status = status
	}
	return nil
}

func (s *stubRegistryRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if s.item == nil || s.item.ID != id {
		return gorm.ErrRecordNotFound
	}
	s.deleted = true
	return nil
}

func (s *stubRegistryRepo) ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) (*ItemList, error) {
	return &ItemList{}, nil
}

func (s *stubRegistryRepo) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	return nil, nil
}

func (s *stubRegistryRepo) FindDueToClose(ctx context.Context, now time.Time, limit int) ([]models.AuctionItem, error) {
	return nil, nil
}

func (s *stubRegistryRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	s.viewBumped = true
	return nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func organizerActor(id uuid.UUID) Actor {
	return Actor{UserID: id, Role: enums.ActorRoleOrganizer}
}

func draftItem(organizerID uuid.UUID) *models.AuctionItem {
	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)
	return &models.AuctionItem{
		ID:                 uuid.New(),
		LotCode:            "LOT-001",
		Title:              "Vintage grandfather clock",
		SellerID:           uuid.New(),
		OrganizerID:        organizerID,
		Method:             enums.AuctionMethodOpenBidding,
		Status:             enums.ItemStatusDraft,
		StartingPriceUnits: 1_000_000,
		IncrementUnits:     50_000,
		AuctionStart:       start,
		AuctionEnd:         end,
		ScheduledEnd:       end,
	}
}

func TestCreateDraft(t *testing.T) {
	organizerID := uuid.New()
	repo := &stubRegistryRepo{}
	pub := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, pub)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	start := time.Now().UTC().Add(24 * time.Hour)
	snap, err := svc.CreateDraft(context.Background(), organizerActor(organizerID), CreateItemInput{
		LotCode:            "LOT-010",
		Title:              "Art deco lamp",
		SellerID:           uuid.New(),
		OrganizerID:        organizerID,
		StartingPriceUnits: 500_000,
		IncrementUnits:     25_000,
		AuctionStart:       start,
		AuctionEnd:         start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if snap.Status != enums.ItemStatusDraft {
		t.Fatalf("expected draft status got %s", snap.Status)
	}
	if snap.MinimumNextBid != 525_000 {
		t.Fatalf("expected minimum next bid of starting price plus increment, got %d", snap.MinimumNextBid)
	}
	if !snap.ScheduledEnd.Equal(snap.AuctionEnd) {
		t.Fatal("expected scheduled end pinned to auction end")
	}
	if len(pub.events) != 0 {
		t.Fatal("draft creation must not emit events")
	}
}

func TestCreateDraftValidation(t *testing.T) {
	organizerID := uuid.New()
	svc, _ := NewService(&stubRegistryRepo{}, stubTxRunner{}, &stubOutboxPublisher{})
	start := time.Now().UTC().Add(time.Hour)

	cases := []struct {
		name  string
		input CreateItemInput
	}{
		{
			name: "missing lot code",
			input: CreateItemInput{
				Title: "x", SellerID: uuid.New(), OrganizerID: organizerID,
				IncrementUnits: 1, AuctionStart: start, AuctionEnd: start.Add(time.Hour),
			},
		},
		{
			name: "zero increment",
			input: CreateItemInput{
				LotCode: "L-1", Title: "x", SellerID: uuid.New(), OrganizerID: organizerID,
				AuctionStart: start, AuctionEnd: start.Add(time.Hour),
			},
		},
		{
			name: "end before start",
			input: CreateItemInput{
				LotCode: "L-2", Title: "x", SellerID: uuid.New(), OrganizerID: organizerID,
				IncrementUnits: 1, AuctionStart: start, AuctionEnd: start.Add(-time.Minute),
			},
		},
		{
			name: "limit below starting price",
			input: CreateItemInput{
				LotCode: "L-3", Title: "x", SellerID: uuid.New(), OrganizerID: organizerID,
				StartingPriceUnits: 100, IncrementUnits: 1,
				LimitPriceUnits: int64Ptr(50),
				AuctionStart:    start, AuctionEnd: start.Add(time.Hour),
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDraft(context.Background(), organizerActor(organizerID), tc.input)
				appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
}

func TestCreateDraftForbiddenForBidder(t *testing.T) {
	svc, _ := NewService(&stubRegistryRepo{}, stubTxRunner{}, &stubOutboxPublisher{})
	_, err := svc.CreateDraft(context.Background(), Actor{UserID: uuid.New(), Role: enums.ActorRoleBidder}, CreateItemInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestPublish(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	repo := &stubRegistryRepo{item: item}
	pub := &stubOutboxPublisher{}
	svc, _ := NewService(repo, stubTxRunner{}, pub)

	snap, err := svc.Publish(context.Background(), organizerActor(organizerID), item.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if snap.Status != enums.ItemStatusPublished {
		t.Fatalf("expected published got %s", snap.Status)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event got %d", len(pub.events))
	}
	if pub.events[0].EventType != enums.EventItemPublished {
		t.Fatalf("unexpected event type %s", pub.events[0].EventType)
	}
}

func TestPublishRejectsNonDraft(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.Status = enums.ItemStatusOngoing
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Publish(context.Background(), organizerActor(organizerID), item.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestPublishRejectsPastStart(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.AuctionStart = time.Now().UTC().Add(-time.Hour)
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Publish(context.Background(), organizerActor(organizerID), item.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestPublishOwnershipEnforced(t *testing.T) {
	item := draftItem(uuid.New())
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Publish(context.Background(), organizerActor(uuid.New()), item.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestCancelFromOngoing(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.Status = enums.ItemStatusOngoing
	repo := &stubRegistryRepo{item: item}
	pub := &stubOutboxPublisher{}
	svc, _ := NewService(repo, stubTxRunner{}, pub)

	err := svc.Cancel(context.Background(), organizerActor(organizerID), item.ID, "seller withdrew the lot")
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if item.Status != enums.ItemStatusCancelled {
		t.Fatalf("expected cancelled got %s", item.Status)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventItemCancelled {
		t.Fatal("expected item cancelled event")
	}
}

func TestCancelRejectsDraft(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	// Drafts are deleted, never cancelled.
	err := svc.Cancel(context.Background(), organizerActor(organizerID), item.ID, "changed my mind")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if item.Status != enums.ItemStatusDraft {
		t.Fatalf("draft must stay draft, got %s", item.Status)
	}
}

func TestCancelRejectsTerminal(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.Status = enums.ItemStatusClosed
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	err := svc.Cancel(context.Background(), organizerActor(organizerID), item.ID, "")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestDeleteDraftOnlyDraft(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	if err := svc.DeleteDraft(context.Background(), organizerActor(organizerID), item.ID); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.deleted {
		t.Fatal("expected delete call")
	}

	item.Status = enums.ItemStatusPublished
	repo.deleted = false
	err := svc.DeleteDraft(context.Background(), organizerActor(organizerID), item.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestGetBumpsViewCount(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.Status = enums.ItemStatusOngoing
	item.CurrentPriceUnits = 1_200_000
	leading := uuid.New()
	item.LeadingBidderID = &leading
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	snap, err := svc.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.viewBumped {
		t.Fatal("expected view count increment")
	}
	if snap.MinimumNextBid != item.CurrentPriceUnits+item.IncrementUnits {
		t.Fatalf("unexpected minimum next bid %d", snap.MinimumNextBid)
	}
}

func TestMinimumNextBid(t *testing.T) {
	leading := uuid.New()

	fresh := &models.AuctionItem{StartingPriceUnits: 100_000, IncrementUnits: 5_000}
	if got := MinimumNextBid(fresh); got != 105_000 {
		t.Fatalf("expected 105000 on a fresh item got %d", got)
	}
	if got := OpeningMinimumBid(fresh); got != 105_000 {
		t.Fatalf("expected opening minimum 105000 got %d", got)
	}

	led := &models.AuctionItem{
		StartingPriceUnits: 100_000,
		IncrementUnits:     5_000,
		CurrentPriceUnits:  130_000,
		LeadingBidderID:    &leading,
	}
	if got := MinimumNextBid(led); got != 135_000 {
		t.Fatalf("expected 135000 with a leader got %d", got)
	}
	if got := OpeningMinimumBid(led); got != 105_000 {
		t.Fatalf("opening minimum must ignore the current price, got %d", got)
	}

	overflow := &models.AuctionItem{
		StartingPriceUnits: math.MaxInt64 - 1,
		IncrementUnits:     5_000,
	}
	if got := MinimumNextBid(overflow); got != math.MaxInt64 {
		t.Fatalf("expected saturation on overflow got %d", got)
	}
}

func TestSnapshotQuickBids(t *testing.T) {
	organizerID := uuid.New()
	item := draftItem(organizerID)
	item.Status = enums.ItemStatusOngoing
	item.CurrentPriceUnits = 1_000_000
	leading := uuid.New()
	item.LeadingBidderID = &leading
	repo := &stubRegistryRepo{item: item}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	snap, err := svc.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(snap.QuickBids) != 3 {
		t.Fatalf("expected three suggestions got %v", snap.QuickBids)
	}
	if snap.QuickBids[0] != snap.MinimumNextBid {
		t.Fatalf("first suggestion must be the minimum, got %v", snap.QuickBids)
	}
	// 5% and 10% above the minimum of 1050000, rounded up.
	if snap.QuickBids[1] != 1_102_500 || snap.QuickBids[2] != 1_155_000 {
		t.Fatalf("unexpected jump suggestions %v", snap.QuickBids)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := NewService(&stubRegistryRepo{}, stubTxRunner{}, &stubOutboxPublisher{})
	_, err := svc.Get(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func int64Ptr(v int64) *int64 { return &v }
