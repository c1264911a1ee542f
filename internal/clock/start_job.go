package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox"
	"github.com/bidhaus/bidhaus-backend/pkg/outbox/payloads"
)

const defaultBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StartJobParams configure the job that opens published auctions.
type StartJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Items     registry.Repository
	Outbox    outboxEmitter
	BatchSize int
	Now       func() time.Time
}

// NewStartJob builds the sweep job that moves published items whose start
// instant has passed into the ongoing state.
func NewStartJob(params StartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("registry repository required")
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
	return &startJob{
		logg:  params.Logger,
		db:    params.DB,
		items: params.Items,
		out:   params.Outbox,
		batch: batch,
		now:   now,
	}, nil
}

type startJob struct {
	logg  *logger.Logger
	db    txRunner
	items registry.Repository
	out   outboxEmitter
	batch int
	now   func() time.Time
}

func (j *startJob) Name() string { return "auction-start" }

func (j *startJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.items.FindDueToStart(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("query due-to-start items: %w", err)
	}

	started := 0
	var errs []error
	for _, item := range due {
		ok, err := j.startItem(ctx, item.ID, now)
		if err != nil {
			// One stuck item must not block the rest of the sweep.
			errs = append(errs, err)
			continue
		}
		if ok {
			started++
		}
	}
	if started > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"count": started})
		j.logg.Info(logCtx, "auctions started")
	}
	return multierr.Combine(errs...)
}

func (j *startJob) startItem(ctx context.Context, itemID uuid.UUID, now time.Time) (bool, error) {
	var started bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.items.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("load item for start: %w", err)
		}
		// Recheck under the row lock; another sweep may have won.
		if item.Status != enums.ItemStatusPublished || item.AuctionStart.After(now) {
			return nil
		}

		if err := repo.UpdateItem(ctx, item.ID, map[string]any{"status": enums.ItemStatusOngoing}); err != nil {
			return fmt.Errorf("mark item ongoing: %w", err)
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionStarted,
			AggregateType: enums.AggregateAuctionItem,
			AggregateID:   item.ID,
			Version:       1,
			Data: payloads.AuctionStartedEvent{
				ItemID:     item.ID,
				LotCode:    item.LotCode,
				StartedAt:  now,
				AuctionEnd: item.AuctionEnd,
			},
		}
		if err := j.out.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		started = true
		return nil
	})
	return started, err
}
