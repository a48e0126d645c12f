package handler

import (
	"net/http"

	"petrent/internal/payments/service"
	apperrors "petrent/pkg/errors"
	httputil "petrent/pkg/http"
	"petrent/pkg/logger"
	"petrent/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	payment, err := h.service.Confirm(r.Context(), middleware.SubjectFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Decline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	payment, err := h.service.Decline(r.Context(), middleware.SubjectFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Decline", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "Decline", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) GetPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payments, err := h.service.GetPending(r.Context(), middleware.SubjectFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, "GetPending", err)
		return
	}

	if err := httputil.WriteSuccess(w, payments); err != nil {
		h.log.Error("failed to write success response", "handler", "GetPending", "operation", "WriteSuccess", "error", err)
	}
}

// writeError renders err and pages on alerting errors, which mean money was
// left in a state that needs an operator.
func (h *PaymentHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
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

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/payment/pending", h.GetPending)
	router.POST("/payment/:id", h.Confirm)
	router.DELETE("/payment/:id", h.Decline)
}
