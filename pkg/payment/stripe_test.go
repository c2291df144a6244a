package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

type fakeIntents struct {
	newFunc     func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getFunc     func(id string) (*stripe.PaymentIntent, error)
	captureFunc func(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	cancelFunc  func(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return f.newFunc(params)
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return f.getFunc(id)
}

func (f *fakeIntents) Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error) {
	return f.captureFunc(id, params)
}

func (f *fakeIntents) Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	return f.cancelFunc(id, params)
}

func TestStripeGateway_AuthorizeUsesManualCapture(t *testing.T) {
	var got *stripe.PaymentIntentParams
	g := newStripeGatewayWith(&fakeIntents{
		newFunc: func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			got = params
			return &stripe.PaymentIntent{
				ID:       "pi_123",
				Status:   stripe.PaymentIntentStatusRequiresCapture,
				Amount:   2500,
				Currency: stripe.CurrencyEUR,
			}, nil
		},
	})

	auth, err := g.Authorize(context.Background(), AuthorizeRequest{
		OrderID:         "order-1",
		TripID:          "trip-1",
		Amount:          2500,
		Currency:        "eur",
		PaymentMethodID: "pm_card_visa",
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if auth.ID != "pi_123" || auth.Status != StatusRequiresCapture {
		t.Errorf("Authorize() = %+v", auth)
	}
	if got == nil || *got.CaptureMethod != string(stripe.PaymentIntentCaptureMethodManual) {
		t.Errorf("capture method not manual")
	}
	if got.IdempotencyKey == nil || *got.IdempotencyKey != "authorize-order-1" {
		t.Errorf("idempotency key = %v", got.IdempotencyKey)
	}
	if got.Metadata["order_id"] != "order-1" {
		t.Errorf("metadata = %v", got.Metadata)
	}
}

func TestStripeGateway_AuthorizeRejectsUnheldIntent(t *testing.T) {
	g := newStripeGatewayWith(&fakeIntents{
		newFunc: func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresAction}, nil
		},
	})

	_, err := g.Authorize(context.Background(), AuthorizeRequest{OrderID: "o", Amount: 1})
	if !errors.Is(err, ErrGatewayFailure) {
		t.Fatalf("expected gateway failure, got %v", err)
	}
}

func TestStripeGateway_CaptureMapsStripeError(t *testing.T) {
	g := newStripeGatewayWith(&fakeIntents{
		captureFunc: func(string, *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error) {
			return nil, &stripe.Error{Code: stripe.ErrorCodePaymentIntentUnexpectedState, Msg: "already captured"}
		},
	})

	err := g.Capture(context.Background(), "pi_9")
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if gwErr.Operation != "capture" || gwErr.AuthorizationID != "pi_9" {
		t.Errorf("GatewayError = %+v", gwErr)
	}
	if gwErr.Code != string(stripe.ErrorCodePaymentIntentUnexpectedState) {
		t.Errorf("Code = %q", gwErr.Code)
	}
}

func TestStripeGateway_CancelAndRetrieve(t *testing.T) {
	cancelled := ""
	g := newStripeGatewayWith(&fakeIntents{
		cancelFunc: func(id string, _ *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
			cancelled = id
			return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusCanceled}, nil
		},
		getFunc: func(id string) (*stripe.PaymentIntent, error) {
			return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusSucceeded, Amount: 900}, nil
		},
	})

	if err := g.Cancel(context.Background(), "pi_c"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled != "pi_c" {
		t.Errorf("cancelled %q", cancelled)
	}

	auth, err := g.Retrieve(context.Background(), "pi_r")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if auth.Status != StatusCaptured || auth.Amount != 900 {
		t.Errorf("Retrieve() = %+v", auth)
	}
}
