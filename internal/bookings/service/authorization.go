package service

import (
	"crypto/subtle"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"
)

// authorizeActor is the single predicate every user-driven transition goes
// through. The claimed role must match the actor's real relation to the
// booking: the trip's driver or the booking's participant.
func authorizeActor(trip *model.Trip, booking *model.Booking, userID string, role model.Role) error {
	switch role {
	case model.RoleDriver:
		if userID != trip.DriverID {
			return apperrors.Forbidden("Only the trip driver can act as driver")
		}
	case model.RolePassenger:
		if userID != booking.ParticipantID {
			return apperrors.Forbidden("Only the booking passenger can act as passenger")
		}
	default:
		return apperrors.InvalidInput("Role must be driver or passenger")
	}
	return nil
}

// authorizeParty accepts either side of the booking without a role claim.
func authorizeParty(trip *model.Trip, booking *model.Booking, userID string) error {
	if userID == trip.DriverID || userID == booking.ParticipantID {
		return nil
	}
	return apperrors.Forbidden("Only the driver or the passenger can view this booking")
}

func checkAdminSecret(configured, provided string) error {
	if configured == "" {
		return apperrors.Forbidden("Admin operations are disabled")
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) != 1 {
		return apperrors.Forbidden("Invalid admin secret")
	}
	return nil
}
