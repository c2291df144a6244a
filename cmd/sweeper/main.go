// Command sweeper runs one auto-capture pass against the bookings service.
// It is meant to be scheduled, for example as a Kubernetes CronJob.
package main

import (
	"context"
	"os"
	"tripshare/pkg/client"
	"tripshare/pkg/config"
)

const JobName = "auto-capture-sweeper"

func main() {
	cfg := config.Load(JobName)
	cfg.RequireAdminSecret()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepRequestTimeout())
	defer cancel()

	bookings := client.NewBookingsClient(cfg.BookingsServiceURL, cfg.SweepRequestTimeout())
	report, err := bookings.AutoCapture(ctx, cfg.AdminSecret)
	if err != nil {
		cfg.Log.Fatal("Auto-capture run failed", "error", err)
	}

	cfg.Log.Info("Auto-capture run completed",
		"trips_scanned", report.TripsScanned,
		"trips_eligible", report.TripsEligible,
		"captured", report.Captured,
		"errors", report.Errors,
	)
	for _, failure := range report.ErrorDetails {
		cfg.Log.Warn("Booking not captured",
			"trip_id", failure.TripID,
			"order_id", failure.OrderID,
			"code", failure.Code,
			"message", failure.Message,
		)
	}
	if report.Errors > 0 {
		os.Exit(2)
	}
}
