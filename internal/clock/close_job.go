package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/internal/ledger"
	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox/payloads"
)

// CloseJobParams configure the job that settles expired auctions.
type CloseJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Items     registry.Repository
	Bids      ledger.Repository
	Outbox    outboxEmitter
	BatchSize int
	Now       func() time.Time
}

// NewCloseJob builds the sweep job that closes ongoing auctions whose live
// end instant has passed, naming the winner from the ledger.
func NewCloseJob(params CloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if params.Bids == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &closeJob{
		logg:  params.Logger,
		db:    params.DB,
		items: params.Items,
		bids:  params.Bids,
		out:   params.Outbox,
		batch: batch,
		now:   now,
	}, nil
}

type closeJob struct {
	logg  *logger.Logger
	db    txRunner
	items registry.Repository
	bids  ledger.Repository
	out   outboxEmitter
	batch int
	now   func() time.Time
}

func (j *closeJob) Name() string { return "auction-close" }

func (j *closeJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.items.FindDueToClose(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("query due-to-close items: %w", err)
	}

	closed := 0
	var errs []error
	for _, item := range due {
		ok, err := j.closeItem(ctx, item.ID, now)
		if err != nil {
			// One stuck item must not block the rest of the sweep.
			errs = append(errs, err)
			continue
		}
		if ok {
			closed++
		}
	}
	if closed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"count": closed})
		j.logg.Info(logCtx, "auctions closed")
	}
	return multierr.Combine(errs...)
}

func (j *closeJob) closeItem(ctx context.Context, itemID uuid.UUID, now time.Time) (bool, error) {
	var closed bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.items.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("load item for close: %w", err)
		}
		// Recheck under the row lock; a late bid may have extended the end.
		if item.Status != enums.ItemStatusOngoing || item.AuctionEnd.After(now) {
			return nil
		}

		bids := j.bids.WithTx(tx)
		winner, err := bids.HighestAccepted(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("load winning bid: %w", err)
		}
		acceptedCount, err := bids.CountAccepted(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("count accepted bids: %w", err)
		}

		updates := map[string]any{
			"status":    enums.ItemStatusClosed,
			"closed_at": now,
		}
		payload := payloads.AuctionClosedEvent{
			ItemID:           item.ID,
			LotCode:          item.LotCode,
			ClosedAt:         now,
			AcceptedBidCount: acceptedCount,
		}
		if winner != nil {
			updates["winner_bidder_id"] = winner.BidderID
			payload.WinnerBidderID = &winner.BidderID
			payload.WinningBidUnits = &winner.AmountUnits
			payload.WinningSequence = &winner.Sequence
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return fmt.Errorf("mark item closed: %w", err)
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionClosed,
			AggregateType: enums.AggregateAuctionItem,
			AggregateID:   item.ID,
			Version:       1,
			Data:          payload,
		}
		if err := j.out.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}

		if winner != nil {
			notification := outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateNotification,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.NotificationRequestedEvent{
					ItemID:   item.ID,
					BidderID: winner.BidderID,
					Type:     "auction_won",
				},
			}
			if err := j.out.Emit(ctx, tx, notification); err != nil {
				return err
			}
		}
		closed = true
		return nil
	})
	return closed, err
}
