package handler

import (
	"encoding/json"
	"net/http"

	"petrent/internal/bookings/service"
	apperrors "petrent/pkg/errors"
	httputil "petrent/pkg/http"
	"petrent/pkg/logger"
	"petrent/pkg/middleware"
	"petrent/pkg/model"

	"github.com/julienschmidt/httprouter"
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

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), middleware.SubjectFromContext(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Create", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetPetDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dates, err := h.service.GetPetDates(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetPetDates", err)
		return
	}

	if err := httputil.WriteSuccess(w, dates); err != nil {
		h.log.Error("failed to write success response", "handler", "GetPetDates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetForOwner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.service.GetForOwner(r.Context(), middleware.SubjectFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetForOwner", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "GetForOwner", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetForRenter(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.service.GetForRenter(r.Context(), middleware.SubjectFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetForRenter", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "GetForRenter", "operation", "WriteSuccess", "error", err)
	}
}

// writeError renders err and pages on alerting errors, which mean money was
// left in a state that needs an operator.
func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if appErr := apperrors.AsAppError(err); appErr.Alert {
		h.log.Alert("Request failed with an alerting error",
			"handler", handler,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"code", appErr.Code,
			"details", appErr.Details,
			"error", appErr.Err,
		)
	}
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/booking", h.Create)
	router.GET("/booking/owner/:id", h.GetForOwner)
	router.GET("/booking/renter/:id", h.GetForRenter)
}

// RegisterPublicRoutes mounts the pet availability calendar, which needs no caller.
func (h *BookingHandler) RegisterPublicRoutes(router *httprouter.Router) {
	router.GET("/booking/dates/pet/:id", h.GetPetDates)
}
