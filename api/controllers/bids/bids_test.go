package bids

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bidhaus/bidhaus-backend/api/middleware"
	"github.com/bidhaus/bidhaus-backend/internal/admission"
	"github.com/bidhaus/bidhaus-backend/internal/ledger"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
	"github.com/bidhaus/bidhaus-backend/pkg/pagination"
)

type stubAdmissionService struct {
	submit func(ctx context.Context, input admission.SubmitBidInput) (*admission.SubmitBidResult, error)
}

func (s *stubAdmissionService) SubmitBid(ctx context.Context, input admission.SubmitBidInput) (*admission.SubmitBidResult, error) {
	if s.submit != nil {
		return s.submit(ctx, input)
	}
	return &admission.SubmitBidResult{}, nil
}

type stubLedgerService struct {
	bidderBids func(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*ledger.BidderBidsPage, error)
}

func (s *stubLedgerService) History(ctx context.Context, itemID uuid.UUID, params pagination.SequenceParams) (*ledger.HistoryPage, error) {
	panic("not implemented")
}

func (s *stubLedgerService) BidderBids(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*ledger.BidderBidsPage, error) {
	if s.bidderBids != nil {
		return s.bidderBids(ctx, bidderID, params)
	}
	return &ledger.BidderBidsPage{}, nil
}

func (s *stubLedgerService) HighestAccepted(ctx context.Context, itemID uuid.UUID) (*ledger.BidRecord, error) {
	panic("not implemented")
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.ActorRole, eligible bool) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	ctx = middleware.WithEligible(ctx, eligible)
	return req.WithContext(ctx)
}

func TestSubmitRequiresIdentity(t *testing.T) {
	handler := Submit(&stubAdmissionService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSubmitPlacesBid(t *testing.T) {
	bidderID := uuid.New()
	itemID := uuid.New()

	svc := &stubAdmissionService{
		submit: func(ctx context.Context, input admission.SubmitBidInput) (*admission.SubmitBidResult, error) {
			if input.BidderID != bidderID {
				t.Fatalf("unexpected bidder %s", input.BidderID)
			}
			if input.ItemID != itemID {
				t.Fatalf("unexpected item %s", input.ItemID)
			}
			if input.AmountUnits != 1_500_000 {
				t.Fatalf("unexpected amount %d", input.AmountUnits)
			}
			if !input.Eligible {
				t.Fatal("eligibility flag not propagated")
			}
			if input.ActorRole != enums.ActorRoleBidder {
				t.Fatalf("unexpected role %s", input.ActorRole)
			}
			return &admission.SubmitBidResult{
				Bid:            ledger.BidRecord{ItemID: itemID, BidderID: bidderID, Sequence: 1, AmountUnits: 1_500_000, Status: enums.BidStatusAccepted},
				CurrentPrice:   1_500_000,
				MinimumNextBid: 1_600_000,
			}, nil
		},
	}

	body := `{"item_id":"` + itemID.String() + `","amount_units":1500000}`
	req := authedRequest(http.MethodPost, "/api/v1/bids", body, bidderID, enums.ActorRoleBidder, true)

	resp := httptest.NewRecorder()
	Submit(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data admission.SubmitBidResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.MinimumNextBid != 1_600_000 {
		t.Fatalf("unexpected minimum next bid %d", envelope.Data.MinimumNextBid)
	}
}

func TestSubmitRejectionSurfacesDetails(t *testing.T) {
	itemID := uuid.New()
	svc := &stubAdmissionService{
		submit: func(ctx context.Context, input admission.SubmitBidInput) (*admission.SubmitBidResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeBidRejected, "bid rejected").WithDetails(map[string]any{
				"reason":                 string(enums.BidRejectReasonBidTooLow),
				"minimum_next_bid_units": int64(2_000_000),
				"sequence":               int64(4),
			})
		},
	}

	body := `{"item_id":"` + itemID.String() + `","amount_units":100}`
	req := authedRequest(http.MethodPost, "/api/v1/bids", body, uuid.New(), enums.ActorRoleBidder, true)

	resp := httptest.NewRecorder()
	Submit(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeBidRejected) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Details["reason"] != string(enums.BidRejectReasonBidTooLow) {
		t.Fatalf("reject reason missing from details: %+v", envelope.Error.Details)
	}
}

func TestSubmitRejectsUnknownFields(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/bids", `{"item_id":"x","amount_units":1,"autobid":true}`, uuid.New(), enums.ActorRoleBidder, true)

	resp := httptest.NewRecorder()
	Submit(&stubAdmissionService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMinePassesCursor(t *testing.T) {
	bidderID := uuid.New()
	svc := &stubLedgerService{
		bidderBids: func(ctx context.Context, gotBidder uuid.UUID, params pagination.Params) (*ledger.BidderBidsPage, error) {
			if gotBidder != bidderID {
				t.Fatalf("unexpected bidder %s", gotBidder)
			}
			if params.Limit != 10 || params.Cursor != "abc" {
				t.Fatalf("unexpected params %+v", params)
			}
			return &ledger.BidderBidsPage{NextCursor: "def"}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/bids/mine?limit=10&cursor=abc", "", bidderID, enums.ActorRoleBidder, true)

	resp := httptest.NewRecorder()
	Mine(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
