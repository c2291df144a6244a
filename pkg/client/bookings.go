package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"tripshare/pkg/model"
)

const AutoCapturePath = "/api/v1/bookings/auto-capture"

// BookingsClient calls the admin surface of the bookings service.
type BookingsClient struct {
	httpClient *HttpClient
}

func NewBookingsClient(baseURL string, timeout time.Duration) *BookingsClient {
	return &BookingsClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

// AutoCapture triggers one sweep run and returns its report.
func (c *BookingsClient) AutoCapture(ctx context.Context, adminSecret string) (*model.SweepReport, error) {
	resp, err := c.httpClient.POST(ctx, AutoCapturePath, model.SweepRequest{AdminSecret: adminSecret})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auto-capture rejected (status %d): %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var report model.SweepReport
	if err := resp.DecodeJSON(&report); err != nil {
		return nil, fmt.Errorf("could not decode sweep report: %w (%s)", err, resp.String())
	}
	return &report, nil
}
