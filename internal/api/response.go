package api

import (
	"encoding/json"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-translations/translations"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

const (
	msgInvalidData  = "The given data was invalid."
	msgNotFound     = "Translation not found"
	msgServerError  = "Server Error"
	msgConflict     = "The translation already exists for this locale."
	msgUnauthorized = "Invalid credentials"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, envelope{Success: false, Message: message, Errors: fields})
}

// writeFailure maps domain and validation errors onto HTTP responses.
func writeFailure(w http.ResponseWriter, logger interfaces.Logger, err error) {
	var (
		validationErr *translations.ValidationError
		notFoundErr   *translations.NotFoundError
		conflictErr   *translations.ConflictError
		richErr       *goerrors.Error
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, msgInvalidData, map[string]string{
			validationErr.Field: validationErr.Message,
		})
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, msgNotFound, nil)
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, msgConflict, map[string]string{"key": conflictErr.Error()})
	case errors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation:
		writeError(w, http.StatusUnprocessableEntity, msgInvalidData, richErr.ValidationMap())
	default:
		logger.Error("request failed", "error", err, "store_error", translations.IsStoreError(err))
		writeError(w, http.StatusInternalServerError, msgServerError, nil)
	}
}
