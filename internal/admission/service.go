package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/internal/ledger"
	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
	"github.com/bidhaus/bidhaus-backend/pkg/metrics"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SubmitBidInput carries one bid attempt. Eligible reflects the deposit
// check asserted upstream in the bidder's access token.
type SubmitBidInput struct {
	ItemID      uuid.UUID
	BidderID    uuid.UUID
	AmountUnits int64
	Eligible    bool
	ActorRole   enums.ActorRole
}

// SubmitBidResult reports an accepted bid. Extended is set when the bid
// landed inside the anti-snipe window and moved the end of the auction.
type SubmitBidResult struct {
	Bid            ledger.BidRecord `json:"bid"`
	CurrentPrice   int64            `json:"current_price_units"`
	MinimumNextBid int64            `json:"minimum_next_bid_units"`
	AuctionEnd     time.Time        `json:"auction_end"`
	Extended       bool             `json:"extended"`
}

// Service is the bid admission engine. All bid writes funnel through
// SubmitBid; nothing else appends to the ledger.
type Service interface {
	SubmitBid(ctx context.Context, input SubmitBidInput) (*SubmitBidResult, error)
}

// Options tune the anti-snipe behavior.
type Options struct {
	AntiSnipeWindow        time.Duration
	MaxCumulativeExtension time.Duration
	MaxActiveItemLocks     int
	// Now overrides the engine clock; nil means time.Now.
	Now func() time.Time
}

type service struct {
	items   registry.Repository
	bids    ledger.Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	met     *metrics.AdmissionMetrics
	locks   *itemLockMap
	window  time.Duration
	maxExt  time.Duration
	now     func() time.Time
}

// NewService builds the admission engine.
func NewService(items registry.Repository, bids ledger.Repository, tx txRunner, pub outboxPublisher, logg *logger.Logger, met *metrics.AdmissionMetrics, opts Options) (Service, error) {
	if items == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if bids == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.AntiSnipeWindow <= 0 {
		return nil, fmt.Errorf("anti-snipe window must be positive")
	}
	if opts.MaxCumulativeExtension < 0 {
		return nil, fmt.Errorf("max cumulative extension cannot be negative")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		items:  items,
		bids:   bids,
		tx:     tx,
		outbox: pub,
		logg:   logg,
		met:    met,
		locks:  newItemLockMap(opts.MaxActiveItemLocks),
		window: opts.AntiSnipeWindow,
		maxExt: opts.MaxCumulativeExtension,
		now:    now,
	}, nil
}

// admissionOutcome is what one committed admission transaction produced.
type admissionOutcome struct {
	bid          models.Bid
	minimumNext  int64
	currentPrice int64
	auctionEnd   time.Time
	extended     bool
	rejectReason enums.BidRejectReason
}

func (s *service) SubmitBid(ctx context.Context, input SubmitBidInput) (*SubmitBidResult, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.BidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountUnits <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	started := s.now()
	release, err := s.locks.Acquire(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var outcome admissionOutcome
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items := s.items.WithTx(tx)
		bids := s.bids.WithTx(tx)

		item, err := items.FindItemForUpdate(ctx, input.ItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction item")
		}

		now := s.now().UTC()
		outcome.minimumNext = registry.MinimumNextBid(item)
		outcome.currentPrice = item.CurrentPriceUnits
		outcome.auctionEnd = item.AuctionEnd

		if reason, rejected := evaluate(item, input, now); rejected {
			outcome.rejectReason = reason
			return s.appendBid(ctx, items, bids, item, input, now, &outcome)
		}
		return s.acceptBid(ctx, tx, items, bids, item, input, now, &outcome)
	})
	s.observe(started)
	if err != nil {
		return nil, err
	}

	if outcome.rejectReason != "" {
		if s.met != nil {
			s.met.IncRejected(outcome.rejectReason.String())
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"item_id":   input.ItemID.String(),
			"bidder_id": input.BidderID.String(),
			"sequence":  outcome.bid.Sequence,
			"reason":    outcome.rejectReason.String(),
		})
		s.logg.Info(logCtx, "bid rejected")
		return nil, pkgerrors.New(pkgerrors.CodeBidRejected, "bid rejected").WithDetails(map[string]any{
			"reason":                 outcome.rejectReason.String(),
			"minimum_next_bid_units": outcome.minimumNext,
			"sequence":               outcome.bid.Sequence,
		})
	}

	if s.met != nil {
		s.met.IncAccepted(enums.AuctionMethodOpenBidding.String())
		if outcome.extended {
			s.met.IncExtended()
		}
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_id":      input.ItemID.String(),
		"bidder_id":    input.BidderID.String(),
		"sequence":     outcome.bid.Sequence,
		"amount_units": outcome.bid.AmountUnits,
		"extended":     outcome.extended,
	})
	s.logg.Info(logCtx, "bid accepted")

	record := toLedgerRecord(outcome.bid)
	return &SubmitBidResult{
		Bid:            record,
		CurrentPrice:   outcome.currentPrice,
		MinimumNextBid: outcome.minimumNext,
		AuctionEnd:     outcome.auctionEnd,
		Extended:       outcome.extended,
	}, nil
}

// evaluate applies the admission rules in precedence order. The first
// failing rule wins; a passing bid returns rejected=false.
func evaluate(item *models.AuctionItem, input SubmitBidInput, now time.Time) (enums.BidRejectReason, bool) {
	if !input.Eligible {
		return enums.BidRejectReasonBidderNotEligible, true
	}
	if item.Status != enums.ItemStatusOngoing {
		return enums.BidRejectReasonAuctionNotOpen, true
	}
	if now.Before(item.AuctionStart) || !now.Before(item.AuctionEnd) {
		return enums.BidRejectReasonAuctionNotOpen, true
	}
	if item.LeadingBidderID != nil && *item.LeadingBidderID == input.BidderID {
		return enums.BidRejectReasonSelfOutbid, true
	}
	if input.AmountUnits < registry.MinimumNextBid(item) {
		// A bid that would have opened the auction but lost the race to
		// an earlier accepted bid was outbid, not too low.
		if item.LeadingBidderID != nil && input.AmountUnits >= registry.OpeningMinimumBid(item) {
			return enums.BidRejectReasonOutbid, true
		}
		return enums.BidRejectReasonBidTooLow, true
	}
	return "", false
}

// appendBid writes a rejected ledger entry. The rejection still consumes a
// sequence number so the ledger reads as one total order per item.
func (s *service) appendBid(ctx context.Context, items registry.Repository, bids ledger.Repository, item *models.AuctionItem, input SubmitBidInput, now time.Time, outcome *admissionOutcome) error {
	sequence := item.LastBidSequence + 1
	reason := outcome.rejectReason
	bid := &models.Bid{
		ID:           uuid.New(),
		ItemID:       item.ID,
		BidderID:     input.BidderID,
		Sequence:     sequence,
		AmountUnits:  input.AmountUnits,
		Status:       enums.BidStatusRejected,
		RejectReason: &reason,
		CreatedAt:    now,
	}
	if _, err := bids.Insert(ctx, bid); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append rejected bid")
	}
	if err := items.UpdateItem(ctx, item.ID, map[string]any{"last_bid_sequence": sequence}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance bid sequence")
	}
	outcome.bid = *bid
	return nil
}

func (s *service) acceptBid(ctx context.Context, tx *gorm.DB, items registry.Repository, bids ledger.Repository, item *models.AuctionItem, input SubmitBidInput, now time.Time, outcome *admissionOutcome) error {
	sequence := item.LastBidSequence + 1
	bid := &models.Bid{
		ID:          uuid.New(),
		ItemID:      item.ID,
		BidderID:    input.BidderID,
		Sequence:    sequence,
		AmountUnits: input.AmountUnits,
		Status:      enums.BidStatusAccepted,
		CreatedAt:   now,
	}
	if _, err := bids.Insert(ctx, bid); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append accepted bid")
	}

	bidCount := item.BidCount + 1
	updates := map[string]any{
		"current_price_units": input.AmountUnits,
		"leading_bidder_id":   input.BidderID,
		"last_bid_sequence":   sequence,
		"bid_count":           bidCount,
	}

	newEnd, extended := s.extendEnd(item, now)
	if extended {
		updates["auction_end"] = newEnd
		updates["extended_count"] = item.ExtendedCount + 1
	}
	if err := items.UpdateItem(ctx, item.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item after bid")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventBidAccepted,
		AggregateType: enums.AggregateBid,
		AggregateID:   bid.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: input.BidderID, Role: input.ActorRole.String()},
		Data: payloads.BidAcceptedEvent{
			ItemID:      item.ID,
			BidID:       bid.ID,
			BidderID:    input.BidderID,
			Sequence:    sequence,
			AmountUnits: input.AmountUnits,
			AcceptedAt:  now,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return err
	}

	if extended {
		extension := outbox.DomainEvent{
			EventType:     enums.EventAuctionExtended,
			AggregateType: enums.AggregateAuctionItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BidderID, Role: input.ActorRole.String()},
			Data: payloads.AuctionExtendedEvent{
				ItemID:        item.ID,
				PreviousEnd:   item.AuctionEnd,
				NewEnd:        newEnd,
				TriggerBidID:  bid.ID,
				ExtendedCount: item.ExtendedCount + 1,
			},
		}
		if err := s.outbox.Emit(ctx, tx, extension); err != nil {
			return err
		}
	}

	outcome.bid = *bid
	outcome.currentPrice = input.AmountUnits
	item.CurrentPriceUnits = input.AmountUnits
	item.LeadingBidderID = &input.BidderID
	item.BidCount = bidCount
	outcome.minimumNext = registry.MinimumNextBid(item)
	outcome.auctionEnd = item.AuctionEnd
	if extended {
		outcome.auctionEnd = newEnd
		outcome.extended = true
	}
	return nil
}

// extendEnd applies the anti-snipe rule: a bid landing inside the closing
// window pushes the end out to now+window, never past scheduled end plus
// the configured maximum cumulative extension.
func (s *service) extendEnd(item *models.AuctionItem, now time.Time) (time.Time, bool) {
	if item.AuctionEnd.Sub(now) >= s.window {
		return item.AuctionEnd, false
	}
	newEnd := now.Add(s.window)
	limit := item.ScheduledEnd.Add(s.maxExt)
	if newEnd.After(limit) {
		newEnd = limit
	}
	if !newEnd.After(item.AuctionEnd) {
		return item.AuctionEnd, false
	}
	return newEnd, true
}

func (s *service) observe(started time.Time) {
	if s.met == nil {
		return
	}
	s.met.ObserveLatency(s.now().Sub(started))
}

func toLedgerRecord(bid models.Bid) ledger.BidRecord {
	return ledger.BidRecord{
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
