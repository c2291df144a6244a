package middleware

import (
	"net/http"
	apperrors "tripshare/pkg/errors"
)

// reject writes the standard error body for requests stopped in middleware.
func reject(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_, _ = w.Write(appErr.ToJSON())
}
