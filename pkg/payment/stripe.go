package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// paymentIntents is the subset of the Stripe PaymentIntents client in use.
type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// StripeGateway places holds as manual-capture PaymentIntents.
type StripeGateway struct {
	intents paymentIntents
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := client.New(secretKey, nil)
	return &StripeGateway{intents: api.PaymentIntents}
}

func newStripeGatewayWith(intents paymentIntents) *StripeGateway {
	return &StripeGateway{intents: intents}
}

func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("authorize-" + req.OrderID)
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("trip_id", req.TripID)
	params.AddMetadata("participant_id", req.ParticipantID)

	intent, err := g.intents.New(params)
	if err != nil {
		return nil, stripeFailure("authorize", "", err)
	}
	if intent.Status != stripe.PaymentIntentStatusRequiresCapture {
		return nil, newGatewayError("authorize", intent.ID, string(intent.Status),
			fmt.Errorf("authorization not held, status %s", intent.Status))
	}
	return fromIntent(intent), nil
}

func (g *StripeGateway) Capture(ctx context.Context, authorizationID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + authorizationID)

	intent, err := g.intents.Capture(authorizationID, params)
	if err != nil {
		return stripeFailure("capture", authorizationID, err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return newGatewayError("capture", authorizationID, string(intent.Status),
			fmt.Errorf("capture not settled, status %s", intent.Status))
	}
	return nil
}

func (g *StripeGateway) Cancel(ctx context.Context, authorizationID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("cancel-" + authorizationID)

	if _, err := g.intents.Cancel(authorizationID, params); err != nil {
		return stripeFailure("cancel", authorizationID, err)
	}
	return nil
}

func (g *StripeGateway) Retrieve(ctx context.Context, authorizationID string) (*Authorization, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.intents.Get(authorizationID, params)
	if err != nil {
		return nil, stripeFailure("retrieve", authorizationID, err)
	}
	return fromIntent(intent), nil
}

func fromIntent(intent *stripe.PaymentIntent) *Authorization {
	return &Authorization{
		ID:       intent.ID,
		Status:   mapIntentStatus(intent.Status),
		Amount:   intent.Amount,
		Currency: string(intent.Currency),
	}
}

func mapIntentStatus(status stripe.PaymentIntentStatus) AuthorizationStatus {
	switch status {
	case stripe.PaymentIntentStatusRequiresCapture:
		return StatusRequiresCapture
	case stripe.PaymentIntentStatusSucceeded:
		return StatusCaptured
	case stripe.PaymentIntentStatusCanceled:
		return StatusCancelled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return StatusFailed
	default:
		return StatusPending
	}
}

func stripeFailure(operation, authorizationID string, err error) *GatewayError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return newGatewayError(operation, authorizationID, string(stripeErr.Code), errors.New(stripeErr.Msg))
	}
	return newGatewayError(operation, authorizationID, "", err)
}
