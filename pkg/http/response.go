package http

import (
	"encoding/json"
	"net/http"
	apperrors "petrent/pkg/errors"
)

type ErrorItem struct {
	Title  string         `json:"title"`
	Detail string         `json:"detail"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err in the error envelope. Errors that are not AppErrors
// are reported as internal without leaking their text.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	item := ErrorItem{
		Title:  appErr.Title(),
		Detail: appErr.Message,
		Meta:   appErr.Details,
	}
	return WriteJSON(w, appErr.StatusCode(), ErrorResponse{Errors: []ErrorItem{item}})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}
