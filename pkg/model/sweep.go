package model

import "time"

type SweepFailure struct {
	TripID  string `json:"trip_id"`
	OrderID string `json:"order_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SweepReport aggregates one auto-capture run. CapturedIDs entries have the
// form "<tripId>:<orderId>".
type SweepReport struct {
	Success       bool           `json:"success"`
	Captured      int            `json:"captured"`
	CapturedIDs   []string       `json:"captured_ids"`
	Errors        int            `json:"errors"`
	ErrorDetails  []SweepFailure `json:"error_details"`
	TripsScanned  int            `json:"trips_scanned"`
	TripsEligible int            `json:"trips_eligible"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}
