package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"tripshare/internal/bookings/repository"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const testTripID = "64b7f0c2a1b2c3d4e5f60718"

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

type mockTripService struct {
	getAllFunc     func(ctx context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, int64, error)
	deactivateFunc func(ctx context.Context, id string, req *model.DeactivateTripRequest) (*model.Trip, error)
}

func (m *mockTripService) Create(ctx context.Context, req *model.CreateTripRequest) (*model.Trip, error) {
	return &model.Trip{ID: testTripID, DriverID: req.DriverID}, nil
}

func (m *mockTripService) GetByID(ctx context.Context, id string) (*model.Trip, error) {
	if id != testTripID {
		return nil, apperrors.NotFoundWithID("Trip", id)
	}
	return &model.Trip{ID: id}, nil
}

func (m *mockTripService) GetAll(ctx context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, filter, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockTripService) Deactivate(ctx context.Context, id string, req *model.DeactivateTripRequest) (*model.Trip, error) {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id, req)
	}
	return &model.Trip{ID: id}, nil
}

type mockBookingService struct {
	confirmFunc     func(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error)
	autoCaptureFunc func(ctx context.Context, adminSecret string) (*model.SweepReport, error)
}

func (m *mockBookingService) Book(ctx context.Context, req *model.BookRequest) (*model.BookingResult, error) {
	return &model.BookingResult{TripID: req.TripID, Booking: model.Booking{OrderID: "order-1", Status: model.BookingAuthorized}}, nil
}

func (m *mockBookingService) Confirm(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, req)
	}
	return &model.BookingResult{TripID: req.TripID}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	return &model.BookingResult{TripID: req.TripID}, nil
}

func (m *mockBookingService) Dispute(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	return &model.BookingResult{TripID: req.TripID}, nil
}

func (m *mockBookingService) Capture(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error) {
	return nil, apperrors.Forbidden("Invalid admin secret")
}

func (m *mockBookingService) ResolveDispute(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error) {
	return &model.BookingResult{TripID: req.TripID, Captured: true}, nil
}

func (m *mockBookingService) PaymentStatus(ctx context.Context, req *model.PaymentStatusRequest) (*model.PaymentStatusResult, error) {
	return &model.PaymentStatusResult{TripID: req.TripID, OrderID: req.OrderID, InSync: true}, nil
}

func (m *mockBookingService) AutoCapture(ctx context.Context, adminSecret string) (*model.SweepReport, error) {
	if m.autoCaptureFunc != nil {
		return m.autoCaptureFunc(ctx, adminSecret)
	}
	return &model.SweepReport{Success: true, CapturedIDs: []string{}, ErrorDetails: []model.SweepFailure{}}, nil
}

func TestTripGetAll_QueryParameters(t *testing.T) {
	var got repository.TripFilter
	var gotLimit int
	var gotOffset int64
	mockService := &mockTripService{
		getAllFunc: func(ctx context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, int64, error) {
			got, gotLimit, gotOffset = filter, limit, offset
			return []*model.Trip{{ID: testTripID}}, 1, nil
		},
	}
	handler := &TripHandler{service: mockService, log: newTestLogger()}

	tests := []struct {
		name           string
		queryString    string
		expectHTTPCode int
		expectFilter   repository.TripFilter
		expectLimit    int
		expectOffset   int64
	}{
		{
			name:           "defaults",
			queryString:    "",
			expectHTTPCode: http.StatusOK,
			expectFilter:   repository.TripFilter{ActiveOnly: true},
			expectLimit:    10,
		},
		{
			name:           "all filters",
			queryString:    "?departure_city=Lyon&arrival_city=Paris&date=2030-05-01&driver_id=driver-1&active=false&limit=5&offset=10",
			expectHTTPCode: http.StatusOK,
			expectFilter:   repository.TripFilter{DepartureCity: "Lyon", ArrivalCity: "Paris", Date: "2030-05-01", DriverID: "driver-1"},
			expectLimit:    5,
			expectOffset:   10,
		},
		{
			name:           "limit capped",
			queryString:    "?limit=5000&offset=-3",
			expectHTTPCode: http.StatusOK,
			expectFilter:   repository.TripFilter{ActiveOnly: true},
			expectLimit:    100,
		},
		{
			name:           "invalid limit",
			queryString:    "?limit=abc",
			expectHTTPCode: http.StatusBadRequest,
		},
		{
			name:           "invalid active",
			queryString:    "?active=maybe",
			expectHTTPCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotLimit, gotOffset = repository.TripFilter{}, 0, 0
			req := httptest.NewRequest(http.MethodGet, "/api/v1/trips"+tt.queryString, nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req, httprouter.Params{})

			if w.Code != tt.expectHTTPCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.expectHTTPCode, w.Body.String())
			}
			if tt.expectHTTPCode != http.StatusOK {
				return
			}
			if got != tt.expectFilter || gotLimit != tt.expectLimit || gotOffset != tt.expectOffset {
				t.Errorf("filter = %+v limit = %d offset = %d", got, gotLimit, gotOffset)
			}

			var resp struct {
				Success    bool          `json:"success"`
				Data       []*model.Trip `json:"data"`
				TotalCount int64         `json:"total_count"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !resp.Success || resp.TotalCount != 1 || len(resp.Data) != 1 {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestTripRoutes(t *testing.T) {
	router := httprouter.New()
	NewTripHandler(&mockTripService{}, newTestLogger()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips/id/"+testTripID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GetByID status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/trips/id/64b7f0c2a1b2c3d4e5f60000", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing trip status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/trips/id/"+testTripID+"/deactivate", strings.NewReader(`{"user_id":"driver-1"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Deactivate status = %d", w.Code)
	}
}

func TestTripCreate_RejectsUnknownFields(t *testing.T) {
	handler := &TripHandler{service: &mockTripService{}, log: newTestLogger()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips", strings.NewReader(`{"driver_id":"d","surprise":true}`))
	w := httptest.NewRecorder()
	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBookingConfirm_ResponseShape(t *testing.T) {
	mockService := &mockBookingService{
		confirmFunc: func(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
			return &model.BookingResult{
				TripID:   req.TripID,
				Booking:  model.Booking{OrderID: req.OrderID, Status: model.BookingCaptured},
				Captured: true,
			}, nil
		},
	}
	handler := &BookingHandler{service: mockService, log: newTestLogger()}

	body := `{"trip_id":"` + testTripID + `","order_id":"order-1","user_id":"driver-1","role":"driver"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/confirm", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Confirm(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Success  bool          `json:"success"`
		TripID   string        `json:"trip_id"`
		Booking  model.Booking `json:"booking"`
		Captured bool          `json:"captured"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !resp.Captured || resp.TripID != testTripID || resp.Booking.Status != model.BookingCaptured {
		t.Errorf("response = %+v", resp)
	}
}

func TestBookingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.Conflict("Booking is captured and cannot be confirmed"), http.StatusConflict, apperrors.CodeConflict},
		{"forbidden", apperrors.Forbidden("nope"), http.StatusForbidden, apperrors.CodeForbidden},
		{"reconciliation", apperrors.NeedsReconciliation("Payment succeeded but the booking could not be updated", errors.New("write"), nil), http.StatusInternalServerError, apperrors.CodeNeedsReconciliation},
		{"plain error", errors.New("leaky detail"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockBookingService{
				confirmFunc: func(context.Context, *model.TransitionRequest) (*model.BookingResult, error) {
					return nil, tt.err
				},
			}
			handler := &BookingHandler{service: mockService, log: newTestLogger()}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/confirm", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			handler.Confirm(w, req, httprouter.Params{})

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Code != tt.wantCode {
				t.Errorf("response = %+v", resp)
			}
			if strings.Contains(resp.Message, "leaky") {
				t.Error("internal error text leaked")
			}
		})
	}
}

func TestBookingAutoCapture_WritesReport(t *testing.T) {
	var gotSecret string
	mockService := &mockBookingService{
		autoCaptureFunc: func(ctx context.Context, adminSecret string) (*model.SweepReport, error) {
			gotSecret = adminSecret
			return &model.SweepReport{
				Success:      true,
				Captured:     1,
				CapturedIDs:  []string{testTripID + ":order-1"},
				ErrorDetails: []model.SweepFailure{},
			}, nil
		},
	}
	router := httprouter.New()
	NewBookingHandler(mockService, newTestLogger()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/auto-capture", strings.NewReader(`{"admin_secret":"s3cret"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotSecret != "s3cret" {
		t.Errorf("secret = %q", gotSecret)
	}
	var report model.SweepReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Success || report.Captured != 1 || report.CapturedIDs[0] != testTripID+":order-1" {
		t.Errorf("report = %+v", report)
	}
}

func TestBookingCapture_Forbidden(t *testing.T) {
	router := httprouter.New()
	NewBookingHandler(&mockBookingService{}, newTestLogger()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/capture", strings.NewReader(`{"trip_id":"`+testTripID+`","order_id":"o","admin_secret":"bad"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("no reachable servers"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(fakePinger{err: tt.err}, newTestLogger())
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil), nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
