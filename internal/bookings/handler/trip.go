package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/service"
	apperrors "tripshare/pkg/errors"
	httputil "tripshare/pkg/http"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"
)

type TripHandler struct {
	service service.TripService
	log     *logger.Logger
}

func NewTripHandler(service service.TripService, log *logger.Logger) *TripHandler {
	return &TripHandler{
		service: service,
		log:     log,
	}
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateTripRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	trip, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, trip); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TripHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, "GetByID", apperrors.InvalidInput("ID parameter is required"))
		return
	}

	trip, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, trip); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TripHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter, err := tripFilterFromQuery(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	trips, totalCount, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if trips == nil {
		trips = []*model.Trip{}
	}

	if err := httputil.WritePaginated(w, trips, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *TripHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, "Deactivate", apperrors.InvalidInput("ID parameter is required"))
		return
	}

	var req model.DeactivateTripRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	trip, err := h.service.Deactivate(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	if err := httputil.WriteSuccess(w, trip); err != nil {
		h.log.Error("failed to write success response", "handler", "Deactivate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TripHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// tripFilterFromQuery reads the optional ListTrips filters. active
// defaults to true so searches only show bookable trips.
func tripFilterFromQuery(r *http.Request) (repository.TripFilter, error) {
	query := r.URL.Query()
	filter := repository.TripFilter{
		DepartureCity: strings.TrimSpace(query.Get("departure_city")),
		ArrivalCity:   strings.TrimSpace(query.Get("arrival_city")),
		Date:          strings.TrimSpace(query.Get("date")),
		DriverID:      strings.TrimSpace(query.Get("driver_id")),
		ActiveOnly:    true,
	}

	if s := query.Get("active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid active parameter: " + s)
		}
		filter.ActiveOnly = active
	}
	return filter, nil
}

func (h *TripHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/trips", h.Create)
	router.GET("/api/v1/trips", h.GetAll)
	router.GET("/api/v1/trips/id/:id", h.GetByID)
	router.POST("/api/v1/trips/id/:id/deactivate", h.Deactivate)
}
