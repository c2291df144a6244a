// Package payment adapts the external payment processor to the
// authorize / capture / cancel / retrieve contract used by the booking
// lifecycle. Every failure is reported as a *GatewayError.
package payment

import (
	"context"
	"errors"
	"fmt"
)

var ErrGatewayFailure = errors.New("payment gateway failure")

type AuthorizationStatus string

const (
	StatusRequiresCapture AuthorizationStatus = "requires_capture"
	StatusCaptured        AuthorizationStatus = "captured"
	StatusCancelled       AuthorizationStatus = "cancelled"
	StatusPending         AuthorizationStatus = "pending"
	StatusFailed          AuthorizationStatus = "failed"
)

type AuthorizeRequest struct {
	// OrderID doubles as the processor idempotency key.
	OrderID         string
	TripID          string
	ParticipantID   string
	Amount          int64
	Currency        string
	PaymentMethodID string
	Description     string
}

type Authorization struct {
	ID       string              `json:"id"`
	Status   AuthorizationStatus `json:"status"`
	Amount   int64               `json:"amount"`
	Currency string              `json:"currency"`
}

// Gateway holds, finalizes or releases funds. Callers must not retry a
// failed call within the same request.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)
	Capture(ctx context.Context, authorizationID string) error
	Cancel(ctx context.Context, authorizationID string) error
	Retrieve(ctx context.Context, authorizationID string) (*Authorization, error)
}

type GatewayError struct {
	Operation       string
	AuthorizationID string
	Code            string
	Err             error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment %s %s failed (%s): %v", e.Operation, e.AuthorizationID, e.Code, e.Err)
	}
	return fmt.Sprintf("payment %s %s failed: %v", e.Operation, e.AuthorizationID, e.Err)
}

func (e *GatewayError) Unwrap() []error {
	return []error{ErrGatewayFailure, e.Err}
}

func newGatewayError(operation, authorizationID, code string, err error) *GatewayError {
	return &GatewayError{
		Operation:       operation,
		AuthorizationID: authorizationID,
		Code:            code,
		Err:             err,
	}
}
