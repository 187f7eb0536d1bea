package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc  func(ctx context.Context, booking *model.BookingReservation) error
	listFunc    func(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, int64, error)
	confirmFunc func(ctx context.Context, id string) (*model.BookingReservation, error)
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.BookingReservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "b1"
	booking.Status = model.StatusPending
	return nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.BookingReservation, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, listingID, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockBookingService) Confirm(ctx context.Context, id string) (*model.BookingReservation, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, id)
	}
	return &model.BookingReservation{ID: id, Status: model.StatusConfirmed}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id string) (*model.BookingReservation, error) {
	return &model.BookingReservation{ID: id, Status: model.StatusCancelled}, nil
}

func (m *mockBookingService) Complete(ctx context.Context, id string) (*model.BookingReservation, error) {
	return nil, apperrors.InvalidState("Booking cannot be completed before its end date")
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	var received *model.BookingReservation
	svc := &mockBookingService{
		createFunc: func(_ context.Context, b *model.BookingReservation) error {
			received = b
			b.ID = "b1"
			b.Status = model.StatusPending
			return nil
		},
	}

	rec := do(newRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"listingId":"L1","renterId":"r1","startDate":"2024-06-01","endDate":"2024-06-05"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if received == nil || received.ListingID != "L1" || !received.StartDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected booking passed to service: %+v", received)
	}

	var resp struct {
		Data model.BookingReservationDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != model.StatusPending || resp.Data.EndDate != "2024-06-05" {
		t.Errorf("unexpected response %+v", resp.Data)
	}
}

func TestCreate_InvalidRange(t *testing.T) {
	rec := do(newRouter(&mockBookingService{}), http.MethodPost, "/api/v1/bookings",
		`{"listingId":"L1","renterId":"r1","startDate":"2024-06-05","endDate":"2024-06-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		svc        *mockBookingService
		expectHTTP int
	}{
		{"confirm", "/api/v1/bookings/id/b1/confirm", &mockBookingService{}, http.StatusOK},
		{"confirm conflict", "/api/v1/bookings/id/b1/confirm", &mockBookingService{
			confirmFunc: func(context.Context, string) (*model.BookingReservation, error) {
				return nil, apperrors.Conflict("Booking dates are no longer available")
			},
		}, http.StatusConflict},
		{"cancel", "/api/v1/bookings/id/b1/cancel", &mockBookingService{}, http.StatusOK},
		{"complete too early", "/api/v1/bookings/id/b1/complete", &mockBookingService{}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newRouter(tt.svc), http.MethodPost, tt.path, "")
			if rec.Code != tt.expectHTTP {
				t.Errorf("expected %d, got %d: %s", tt.expectHTTP, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	rec := do(newRouter(&mockBookingService{}), http.MethodGet, "/api/v1/bookings/id/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListByListing_Pagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	svc := &mockBookingService{
		listFunc: func(_ context.Context, listingID string, limit int, offset int64) ([]*model.BookingReservation, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.BookingReservation{{ID: "b1", ListingID: listingID}}, 7, nil
		},
	}

	tests := []struct {
		name         string
		query        string
		expectHTTP   int
		expectLimit  int
		expectOffset int64
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"explicit", "?limit=20&offset=5", http.StatusOK, 20, 5},
		{"negative offset", "?offset=-3", http.StatusOK, 10, 0},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit, gotOffset = 0, 0
			rec := do(newRouter(svc), http.MethodGet, "/api/v1/listings/L1/bookings"+tt.query, "")
			if rec.Code != tt.expectHTTP {
				t.Fatalf("expected %d, got %d", tt.expectHTTP, rec.Code)
			}
			if tt.expectHTTP != http.StatusOK {
				return
			}
			if gotLimit != tt.expectLimit || gotOffset != tt.expectOffset {
				t.Errorf("expected limit=%d offset=%d, got limit=%d offset=%d", tt.expectLimit, tt.expectOffset, gotLimit, gotOffset)
			}

			var resp httputil.PaginatedResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.TotalCount != 7 {
				t.Errorf("expected total 7, got %d", resp.TotalCount)
			}
		})
	}
}
