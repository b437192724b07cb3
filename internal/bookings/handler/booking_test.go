package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"serenity/internal/bookings/repository"
	apperrors "serenity/pkg/errors"
	"serenity/pkg/logger"
	"serenity/pkg/model"
)

// Mock service for testing
type mockBookingService struct {
	createFunc       func(ctx context.Context, req *model.BookingRequest, memberID string) (*model.Booking, error)
	getByIDFunc      func(ctx context.Context, id string) (*model.Booking, error)
	getAllFunc       func(ctx context.Context, f repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error)
	updateStatusFunc func(ctx context.Context, id string, req *model.StatusUpdateRequest, actor string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest, memberID string) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req, memberID)
	}
	return &model.Booking{ID: "507f1f77bcf86cd799439099", Status: model.StatusPending}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, f repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, f, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest, actor string) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, req, actor)
	}
	return &model.Booking{ID: id, Status: req.Status}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id string, req *model.CancelRequest, actor string) (*model.Booking, error) {
	return &model.Booking{ID: id, Status: model.StatusCancelled}, nil
}

func (m *mockBookingService) RequestOtp(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) VerifyOtp(ctx context.Context, id string, req *model.VerifyOtpRequest) (*model.Booking, error) {
	return &model.Booking{ID: id, Status: model.StatusConfirmed, IsOtpVerified: true}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestHandler(svc *mockBookingService) (*BookingHandler, *httprouter.Router) {
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON})
	h := NewBookingHandler(svc, log)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return h, router
}

func TestCreateReturnsCreated(t *testing.T) {
	var gotMemberID string
	svc := &mockBookingService{
		createFunc: func(_ context.Context, _ *model.BookingRequest, memberID string) (*model.Booking, error) {
			gotMemberID = memberID
			return &model.Booking{ID: "507f1f77bcf86cd799439099", BookingCode: "BK202506010042"}, nil
		},
	}
	_, router := newTestHandler(svc)

	body := `{"service_ids":["507f1f77bcf86cd799439011"],"booking_date":"2025-06-10","booking_time":"14:30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("X-User-ID", "507f1f77bcf86cd799439022")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotMemberID != "507f1f77bcf86cd799439022" {
		t.Errorf("expected member ID from header, got %q", gotMemberID)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetByIDMapsServiceErrors(t *testing.T) {
	svc := &mockBookingService{
		getByIDFunc: func(_ context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	_, router := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/507f1f77bcf86cd799439099", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetAllParsesFilter(t *testing.T) {
	var gotFilter repository.Filter
	var gotLimit int
	svc := &mockBookingService{
		getAllFunc: func(_ context.Context, f repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotFilter = f
			gotLimit = limit
			return []*model.Booking{}, 0, nil
		},
	}
	_, router := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings?status=pending&phone=%2B84901234567&date_from=2025-06-01&date_to=2025-06-30&limit=500", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotFilter.Status != model.StatusPending {
		t.Errorf("expected status filter pending, got %q", gotFilter.Status)
	}
	if gotFilter.Phone != "+84901234567" {
		t.Errorf("expected phone filter, got %q", gotFilter.Phone)
	}
	if gotFilter.DateFrom == nil || gotFilter.DateTo == nil {
		t.Fatal("expected date range to be parsed")
	}
	// date_to is inclusive, so the repository bound is the next day.
	wantTo := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !gotFilter.DateTo.Equal(wantTo) {
		t.Errorf("expected date_to bound %v, got %v", wantTo, gotFilter.DateTo)
	}
	if gotLimit != 100 {
		t.Errorf("expected limit clamped to 100, got %d", gotLimit)
	}
}

func TestGetAllRejectsBadDate(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?date_from=June+1st", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateStatusPassesActor(t *testing.T) {
	var gotActor string
	svc := &mockBookingService{
		updateStatusFunc: func(_ context.Context, id string, req *model.StatusUpdateRequest, actor string) (*model.Booking, error) {
			gotActor = actor
			return &model.Booking{ID: id, Status: req.Status}, nil
		},
	}
	_, router := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/bookings/507f1f77bcf86cd799439099/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("X-User-ID", "staff-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotActor != "staff-42" {
		t.Errorf("expected actor from header, got %q", gotActor)
	}
}

func TestVerifyOtpReturnsUpdatedBooking(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/bookings/507f1f77bcf86cd799439099/verify-otp", strings.NewReader(`{"code":"123456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Status != model.StatusConfirmed || !resp.Data.IsOtpVerified {
		t.Errorf("expected verified confirmed booking, got %+v", resp.Data)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/507f1f77bcf86cd799439099", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
