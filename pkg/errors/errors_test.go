package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "trip not found",
			},
			expected: "NOT_FOUND: trip not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeGatewayFailure,
				Message: "Payment capture failed",
				Err:     errors.New("card_declined"),
			},
			expected: "GATEWAY_FAILURE: Payment capture failed (caused by: card_declined)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Trip"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Booking", "o-1"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("role is required"), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("bad request", nil), CodeInvalidInput, http.StatusBadRequest},
		{"forbidden", Forbidden("not your booking"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("booking is not authorized"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError},
		{"gateway", GatewayFailure("capture", errors.New("x")), CodeGatewayFailure, http.StatusInternalServerError},
		{"reconciliation", NeedsReconciliation("store failed", errors.New("x"), nil), CodeNeedsReconciliation, http.StatusInternalServerError},
		{"unavailable", Unavailable("Payments"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "o-12345")

	if err.Details["id"] != "o-12345" {
		t.Errorf("expected id 'o-12345', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Booking" {
		t.Errorf("expected resource 'Booking', got %v", err.Details["resource"])
	}
	if err.Message != "Booking not found" {
		t.Errorf("expected message 'Booking not found', got %s", err.Message)
	}
}

func TestGatewayFailure_Details(t *testing.T) {
	err := GatewayFailure("cancel", errors.New("timeout"))
	if err.Details["operation"] != "cancel" {
		t.Errorf("expected operation detail 'cancel', got %v", err.Details["operation"])
	}
	if err.Message != "Payment cancel failed" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Trip")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("outer: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should find wrapped AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestIsAppErrorAndHasCode(t *testing.T) {
	conflict := Conflict("not authorized")

	if !IsAppError(conflict) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
	if !HasCode(conflict, CodeConflict) {
		t.Errorf("HasCode() should match conflict code")
	}
	if HasCode(conflict, CodeForbidden) {
		t.Errorf("HasCode() should not match forbidden code")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Trip", "12345").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, `"success":false`) {
		t.Errorf("ToJSON() should mark the response unsuccessful, got %s", jsonStr)
	}
}
