package registry

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/bidhaus/bidhaus-backend/pkg/db"
	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/money"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox/payloads"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who is performing a registry operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// Service defines lifecycle operations over the auction item registry.
type Service interface {
	CreateDraft(ctx context.Context, actor Actor, input CreateItemInput) (*Snapshot, error)
	UpdateDraft(ctx context.Context, actor Actor, itemID uuid.UUID, input UpdateItemInput) (*Snapshot, error)
	Publish(ctx context.Context, actor Actor, itemID uuid.UUID) (*Snapshot, error)
	Cancel(ctx context.Context, actor Actor, itemID uuid.UUID, reason string) error
	DeleteDraft(ctx context.Context, actor Actor, itemID uuid.UUID) error
	Get(ctx context.Context, itemID uuid.UUID) (*Snapshot, error)
	GetByLotCode(ctx context.Context, lotCode string) (*Snapshot, error)
	List(ctx context.Context, params pagination.Params, filters ItemFilters) (*ItemList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a registry service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) CreateDraft(ctx context.Context, actor Actor, input CreateItemInput) (*Snapshot, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	input.LotCode = strings.TrimSpace(input.LotCode)
	input.Title = strings.TrimSpace(input.Title)
	if input.LotCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot code required")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if input.OrganizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer id required")
	}
	if actor.Role == enums.ActorRoleOrganizer && input.OrganizerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot create items for another organizer")
	}
	method := input.Method
	if method == "" {
		method = enums.AuctionMethodOpenBidding
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown auction method")
	}
	if err := validatePricing(input.StartingPriceUnits, input.IncrementUnits, input.DepositUnits, input.LimitPriceUnits); err != nil {
		return nil, err
	}
	if err := validateSchedule(input.AuctionStart, input.AuctionEnd, input.RegistrationStart, input.RegistrationEnd, input.DepositDeadline); err != nil {
		return nil, err
	}

	item := &models.AuctionItem{
		LotCode:     input.LotCode,
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		SellerID:    input.SellerID,
		OrganizerID: input.OrganizerID,
		Method:      method,
		Status:      enums.ItemStatusDraft,

		StartingPriceUnits: input.StartingPriceUnits,
		IncrementUnits:     input.IncrementUnits,
		DepositUnits:       input.DepositUnits,
		LimitPriceUnits:    input.LimitPriceUnits,

		RegistrationStart: input.RegistrationStart,
		RegistrationEnd:   input.RegistrationEnd,
		DepositDeadline:   input.DepositDeadline,
		AuctionStart:      input.AuctionStart.UTC(),
		AuctionEnd:        input.AuctionEnd.UTC(),
		ScheduledEnd:      input.AuctionEnd.UTC(),
		AnnouncementDate:  input.AnnouncementDate,
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "lot_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "lot code already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auction item")
	}
	return buildSnapshot(created), nil
}

func (s *service) UpdateDraft(ctx context.Context, actor Actor, itemID uuid.UUID, input UpdateItemInput) (*Snapshot, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var updated *models.AuctionItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
		}
		if err := requireOwnership(actor, item); err != nil {
			return err
		}
		if item.Status != enums.ItemStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft items can be edited")
		}

		applyDraftUpdates(item, input)

		if err := validatePricing(item.StartingPriceUnits, item.IncrementUnits, item.DepositUnits, item.LimitPriceUnits); err != nil {
			return err
		}
		if err := validateSchedule(item.AuctionStart, item.AuctionEnd, item.RegistrationStart, item.RegistrationEnd, item.DepositDeadline); err != nil {
			return err
		}

		updates := map[string]any{
			"title":                item.Title,
			"description":          item.Description,
			"category_id":          item.CategoryID,
			"starting_price_units": item.StartingPriceUnits,
			"increment_units":      item.IncrementUnits,
			"deposit_units":        item.DepositUnits,
			"limit_price_units":    item.LimitPriceUnits,
			"registration_start":   item.RegistrationStart,
			"registration_end":     item.RegistrationEnd,
			"deposit_deadline":     item.DepositDeadline,
			"auction_start":        item.AuctionStart,
			"auction_end":          item.AuctionEnd,
			"scheduled_end":        item.AuctionEnd,
			"announcement_date":    item.AnnouncementDate,
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update auction item")
		}
		item.ScheduledEnd = item.AuctionEnd
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildSnapshot(updated), nil
}

func (s *service) Publish(ctx context.Context, actor Actor, itemID uuid.UUID) (*Snapshot, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var published *models.AuctionItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
		}
		if err := requireOwnership(actor, item); err != nil {
			return err
		}
		if !item.Status.CanTransitionTo(enums.ItemStatusPublished) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item cannot be published in current state")
		}

		now := time.Now().UTC()
		if !item.AuctionStart.After(now) {
			return pkgerrors.New(pkgerrors.CodeValidation, "auction start must be in the future")
		}

		updates := map[string]any{
			"status":        enums.ItemStatusPublished,
			"published_at":  now,
			"scheduled_end": item.AuctionEnd,
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish auction item")
		}

		item.Status = enums.ItemStatusPublished
		item.PublishedAt = &now
		item.ScheduledEnd = item.AuctionEnd
		published = item

		event := outbox.DomainEvent{
			EventType:     enums.EventItemPublished,
			AggregateType: enums.AggregateAuctionItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: payloads.ItemPublishedEvent{
				ItemID:        item.ID,
				LotCode:       item.LotCode,
				AuctionStart:  item.AuctionStart,
				AuctionEnd:    item.AuctionEnd,
				StartingPrice: item.StartingPriceUnits,
			},
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return buildSnapshot(published), nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, itemID uuid.UUID, reason string) error {
	if err := requireOrganizer(actor); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
		}
		if err := requireOwnership(actor, item); err != nil {
			return err
		}
		if !item.Status.CanTransitionTo(enums.ItemStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item cannot be cancelled in current state")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.ItemStatusCancelled,
			"cancelled_at": now,
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel auction item")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventItemCancelled,
			AggregateType: enums.AggregateAuctionItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: payloads.ItemCancelledEvent{
				ItemID:      item.ID,
				LotCode:     item.LotCode,
				CancelledAt: now,
				Reason:      strings.TrimSpace(reason),
			},
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
}

func (s *service) DeleteDraft(ctx context.Context, actor Actor, itemID uuid.UUID) error {
	if err := requireOrganizer(actor); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
		}
		if err := requireOwnership(actor, item); err != nil {
			return err
		}
		if item.Status != enums.ItemStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft items can be deleted")
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete auction item")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, itemID uuid.UUID) (*Snapshot, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
	}
	// View counting is best effort; a miss never fails the read.
	_ = s.repo.IncrementViewCount(ctx, item.ID)
	return buildSnapshot(item), nil
}

func (s *service) GetByLotCode(ctx context.Context, lotCode string) (*Snapshot, error) {
	lotCode = strings.TrimSpace(lotCode)
	if lotCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot code required")
	}
	item, err := s.repo.FindItemByLotCode(ctx, lotCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
	}
	return buildSnapshot(item), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ItemFilters) (*ItemList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item status")
	}
	list, err := s.repo.ListItems(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list auction items")
	}
	return list, nil
}

func requireOrganizer(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.ActorRoleOrganizer && actor.Role != enums.ActorRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "organizer role required")
	}
	return nil
}

func requireOwnership(actor Actor, item *models.AuctionItem) error {
	if actor.Role == enums.ActorRoleAdmin {
		return nil
	}
	if item.OrganizerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to organizer")
	}
	return nil
}

func validatePricing(starting, increment, deposit int64, limit *int64) error {
	if starting < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "starting price cannot be negative")
	}
	if increment <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "increment must be positive")
	}
	if deposit < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "deposit cannot be negative")
	}
	if limit != nil && *limit < starting {
		return pkgerrors.New(pkgerrors.CodeValidation, "limit price cannot be below starting price")
	}
	return nil
}

func validateSchedule(start, end time.Time, regStart, regEnd, depositDeadline *time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction start and end required")
	}
	if !end.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction end must be after auction start")
	}
	if regStart != nil && regEnd != nil && !regEnd.After(*regStart) {
		return pkgerrors.New(pkgerrors.CodeValidation, "registration end must be after registration start")
	}
	if regEnd != nil && regEnd.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "registration must close before the auction starts")
	}
	if depositDeadline != nil && depositDeadline.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "deposit deadline must not pass the auction start")
	}
	return nil
}

func applyDraftUpdates(item *models.AuctionItem, input UpdateItemInput) {
	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.CategoryID != nil {
		item.CategoryID = input.CategoryID
	}
	if input.StartingPriceUnits != nil {
		item.StartingPriceUnits = *input.StartingPriceUnits
	}
	if input.IncrementUnits != nil {
		item.IncrementUnits = *input.IncrementUnits
	}
	if input.DepositUnits != nil {
		item.DepositUnits = *input.DepositUnits
	}
	if input.LimitPriceUnits != nil {
		item.LimitPriceUnits = input.LimitPriceUnits
	}
	if input.RegistrationStart != nil {
		item.RegistrationStart = input.RegistrationStart
	}
	if input.RegistrationEnd != nil {
		item.RegistrationEnd = input.RegistrationEnd
	}
	if input.DepositDeadline != nil {
		item.DepositDeadline = input.DepositDeadline
	}
	if input.AuctionStart != nil {
		item.AuctionStart = input.AuctionStart.UTC()
	}
	if input.AuctionEnd != nil {
		item.AuctionEnd = input.AuctionEnd.UTC()
		item.ScheduledEnd = item.AuctionEnd
	}
	if input.AnnouncementDate != nil {
		item.AnnouncementDate = input.AnnouncementDate
	}
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

// MinimumNextBid computes the lowest amount the next bid must reach. The
// increment always applies: until a bid is accepted the floor is the
// starting price, afterwards the current price.
func MinimumNextBid(item *models.AuctionItem) int64 {
	floor := item.StartingPriceUnits
	if item.LeadingBidderID != nil {
		floor = item.CurrentPriceUnits
	}
	return addIncrement(floor, item.IncrementUnits)
}

// OpeningMinimumBid is the minimum the very first bid on the item had to
// clear, independent of any bids accepted since.
func OpeningMinimumBid(item *models.AuctionItem) int64 {
	return addIncrement(item.StartingPriceUnits, item.IncrementUnits)
}

func addIncrement(floor, increment int64) int64 {
	base, err := money.FromMinorUnits(floor)
	if err != nil {
		return math.MaxInt64
	}
	step, err := money.FromMinorUnits(increment)
	if err != nil {
		return math.MaxInt64
	}
	sum, err := base.Add(step)
	if err != nil {
		// Saturate so an absurd floor still rejects every bid instead
		// of wrapping to an acceptable one.
		return math.MaxInt64
	}
	return sum.MinorUnits()
}

// quickBidRatios drive the jump-bid suggestions on the public snapshot.
var quickBidRatios = []decimal.Decimal{
	decimal.NewFromFloat(1.05),
	decimal.NewFromFloat(1.10),
}

// quickBids suggests bid amounts starting at the admissible minimum, then
// 5% and 10% jumps rounded up so every suggestion clears the minimum.
func quickBids(item *models.AuctionItem) []int64 {
	minimum, err := money.FromMinorUnits(MinimumNextBid(item))
	if err != nil {
		return nil
	}
	out := []int64{minimum.MinorUnits()}
	for _, ratio := range quickBidRatios {
		scaled, err := minimum.MultiplyByRatio(ratio)
		if err != nil {
			break
		}
		out = append(out, scaled.MinorUnits())
	}
	return out
}

func buildSnapshot(item *models.AuctionItem) *Snapshot {
	return &Snapshot{
		ID:              item.ID,
		LotCode:         item.LotCode,
		Title:           item.Title,
		Description:     item.Description,
		Status:          item.Status,
		StartingPrice:   item.StartingPriceUnits,
		CurrentPrice:    item.CurrentPriceUnits,
		MinimumNextBid:  MinimumNextBid(item),
		IncrementUnits:  item.IncrementUnits,
		DepositUnits:    item.DepositUnits,
		LeadingBidderID: item.LeadingBidderID,
		WinnerBidderID:  item.WinnerBidderID,
		LastBidSequence: item.LastBidSequence,
		BidCount:        item.BidCount,
		QuickBids:       quickBids(item),
		AuctionStart:    item.AuctionStart,
		AuctionEnd:      item.AuctionEnd,
		ScheduledEnd:    item.ScheduledEnd,
		ViewCount:       item.ViewCount,
	}
}
