package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripshare/internal/bookings/service"
	httputil "tripshare/pkg/http"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// bookingResponse flattens the operation result next to the success flag.
type bookingResponse struct {
	Success bool `json:"success"`
	*model.BookingResult
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	result, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusCreated, bookingResponse{Success: true, BookingResult: result}); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.transition(w, r, "Confirm", h.service.Confirm)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.transition(w, r, "Cancel", h.service.Cancel)
}

func (h *BookingHandler) Dispute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.transition(w, r, "Dispute", h.service.Dispute)
}

func (h *BookingHandler) Capture(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.adminCapture(w, r, "Capture", h.service.Capture)
}

func (h *BookingHandler) ResolveDispute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.adminCapture(w, r, "ResolveDispute", h.service.ResolveDispute)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	handler string,
	op func(context.Context, *model.TransitionRequest) (*model.BookingResult, error),
) {
	var req model.TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, handler, err)
		return
	}

	result, err := op(r.Context(), &req)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	h.writeResult(w, handler, result)
}

func (h *BookingHandler) adminCapture(
	w http.ResponseWriter,
	r *http.Request,
	handler string,
	op func(context.Context, *model.CaptureRequest) (*model.BookingResult, error),
) {
	var req model.CaptureRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, handler, err)
		return
	}

	result, err := op(r.Context(), &req)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	h.writeResult(w, handler, result)
}

func (h *BookingHandler) AutoCapture(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SweepRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AutoCapture", err)
		return
	}

	report, err := h.service.AutoCapture(r.Context(), req.AdminSecret)
	if err != nil {
		h.writeError(w, "AutoCapture", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, report); err != nil {
		h.log.Error("failed to write JSON response", "handler", "AutoCapture", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) PaymentStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "PaymentStatus", err)
		return
	}

	status, err := h.service.PaymentStatus(r.Context(), &req)
	if err != nil {
		h.writeError(w, "PaymentStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "PaymentStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeResult(w http.ResponseWriter, handler string, result *model.BookingResult) {
	if err := httputil.WriteJSON(w, http.StatusOK, bookingResponse{Success: true, BookingResult: result}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Book)
	router.POST("/api/v1/bookings/confirm", h.Confirm)
	router.POST("/api/v1/bookings/cancel", h.Cancel)
	router.POST("/api/v1/bookings/dispute", h.Dispute)
	router.POST("/api/v1/bookings/capture", h.Capture)
	router.POST("/api/v1/bookings/resolve-dispute", h.ResolveDispute)
	router.POST("/api/v1/bookings/auto-capture", h.AutoCapture)
	router.POST("/api/v1/bookings/payment-status", h.PaymentStatus)
}
