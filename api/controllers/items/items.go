package items

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bidhaus/bidhaus-backend/api/middleware"
	"github.com/bidhaus/bidhaus-backend/api/responses"
	"github.com/bidhaus/bidhaus-backend/api/validators"
	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
)

type createItemRequest struct {
	LotCode     string  `json:"lot_code" validate:"required,max=64"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	CategoryID  *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	SellerID    string  `json:"seller_id" validate:"required,uuid"`
	OrganizerID string  `json:"organizer_id" validate:"required,uuid"`
	Method      string  `json:"method,omitempty"`

	StartingPriceUnits int64  `json:"starting_price_units" validate:"min=0"`
	IncrementUnits     int64  `json:"increment_units" validate:"required,gt=0"`
	DepositUnits       int64  `json:"deposit_units" validate:"min=0"`
	LimitPriceUnits    *int64 `json:"limit_price_units,omitempty"`

	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`
	DepositDeadline   *time.Time `json:"deposit_deadline,omitempty"`
	AuctionStart      time.Time  `json:"auction_start" validate:"required"`
	AuctionEnd        time.Time  `json:"auction_end" validate:"required"`
	AnnouncementDate  *time.Time `json:"announcement_date,omitempty"`
}

type updateItemRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	CategoryID  *string `json:"category_id,omitempty" validate:"omitempty,uuid"`

	StartingPriceUnits *int64 `json:"starting_price_units,omitempty"`
	IncrementUnits     *int64 `json:"increment_units,omitempty"`
	DepositUnits       *int64 `json:"deposit_units,omitempty"`
	LimitPriceUnits    *int64 `json:"limit_price_units,omitempty"`

	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`
	DepositDeadline   *time.Time `json:"deposit_deadline,omitempty"`
	AuctionStart      *time.Time `json:"auction_start,omitempty"`
	AuctionEnd        *time.Time `json:"auction_end,omitempty"`
	AnnouncementDate  *time.Time `json:"announcement_date,omitempty"`
}

type cancelItemRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// Create registers a draft item owned by the calling organizer.
func Create(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateInput(req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.CreateDraft(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
	}
}

// Update patches a draft in place; published items are immutable here.
func Update(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildUpdateInput(req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.UpdateDraft(r.Context(), actor, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// Publish moves a draft into the published state.
func Publish(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Publish(r.Context(), actor, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// Cancel withdraws an item from sale.
func Cancel(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelItemRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if err := svc.Cancel(r.Context(), actor, itemID, validators.SanitizeString(req.Reason, 500)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// Delete removes a draft that never went live.
func Delete(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteDraft(r.Context(), actor, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func actorFromContext(r *http.Request) (registry.Actor, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return registry.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return registry.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid identity")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return registry.Actor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown role")
	}

	return registry.Actor{UserID: userID, Role: role}, nil
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}

func buildCreateInput(req createItemRequest) (registry.CreateItemInput, error) {
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return registry.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id")
	}
	organizerID, err := uuid.Parse(req.OrganizerID)
	if err != nil {
		return registry.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organizer id")
	}

	method := enums.AuctionMethodOpenBidding
	if raw := strings.TrimSpace(req.Method); raw != "" {
		method, err = enums.ParseAuctionMethod(raw)
		if err != nil {
			return registry.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid auction method")
		}
	}

	input := registry.CreateItemInput{
		LotCode:     validators.SanitizeString(req.LotCode, 64),
		Title:       validators.SanitizeString(req.Title, 200),
		Description: req.Description,
		SellerID:    sellerID,
		OrganizerID: organizerID,
		Method:      method,

		StartingPriceUnits: req.StartingPriceUnits,
		IncrementUnits:     req.IncrementUnits,
		DepositUnits:       req.DepositUnits,
		LimitPriceUnits:    req.LimitPriceUnits,

		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		DepositDeadline:   req.DepositDeadline,
		AuctionStart:      req.AuctionStart,
		AuctionEnd:        req.AuctionEnd,
		AnnouncementDate:  req.AnnouncementDate,
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return registry.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &categoryID
	}

	return input, nil
}

func buildUpdateInput(req updateItemRequest) (registry.UpdateItemInput, error) {
	input := registry.UpdateItemInput{
		Title:       req.Title,
		Description: req.Description,

		StartingPriceUnits: req.StartingPriceUnits,
		IncrementUnits:     req.IncrementUnits,
		DepositUnits:       req.DepositUnits,
		LimitPriceUnits:    req.LimitPriceUnits,

		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		DepositDeadline:   req.DepositDeadline,
		AuctionStart:      req.AuctionStart,
		AuctionEnd:        req.AuctionEnd,
		AnnouncementDate:  req.AnnouncementDate,
	}

	if req.Title != nil {
		trimmed := validators.SanitizeString(*req.Title, 200)
		input.Title = &trimmed
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return registry.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &categoryID
	}

	return input, nil
}
