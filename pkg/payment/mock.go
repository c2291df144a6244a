package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockGateway keeps authorizations in memory. It backs local development
// when no processor key is configured.
type MockGateway struct {
	mu             sync.Mutex
	authorizations map[string]*Authorization
	byOrder        map[string]string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		authorizations: make(map[string]*Authorization),
		byOrder:        make(map[string]string),
	}
}

func (g *MockGateway) Authorize(_ context.Context, req AuthorizeRequest) (*Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.byOrder[req.OrderID]; ok {
		auth := *g.authorizations[id]
		return &auth, nil
	}
	if req.Amount <= 0 {
		return nil, newGatewayError("authorize", "", "amount_too_small", fmt.Errorf("amount must be positive"))
	}

	auth := &Authorization{
		ID:       "pi_mock_" + uuid.NewString(),
		Status:   StatusRequiresCapture,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	g.authorizations[auth.ID] = auth
	g.byOrder[req.OrderID] = auth.ID

	result := *auth
	return &result, nil
}

func (g *MockGateway) Capture(_ context.Context, authorizationID string) error {
	return g.settle("capture", authorizationID, StatusCaptured)
}

func (g *MockGateway) Cancel(_ context.Context, authorizationID string) error {
	return g.settle("cancel", authorizationID, StatusCancelled)
}

func (g *MockGateway) Retrieve(_ context.Context, authorizationID string) (*Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	auth, ok := g.authorizations[authorizationID]
	if !ok {
		return nil, newGatewayError("retrieve", authorizationID, "resource_missing", fmt.Errorf("no such authorization"))
	}
	result := *auth
	return &result, nil
}

func (g *MockGateway) settle(operation, authorizationID string, target AuthorizationStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	auth, ok := g.authorizations[authorizationID]
	if !ok {
		return newGatewayError(operation, authorizationID, "resource_missing", fmt.Errorf("no such authorization"))
	}
	if auth.Status == target {
		return nil
	}
	if auth.Status != StatusRequiresCapture {
		return newGatewayError(operation, authorizationID, "payment_intent_unexpected_state",
			fmt.Errorf("authorization is %s", auth.Status))
	}
	auth.Status = target
	return nil
}
