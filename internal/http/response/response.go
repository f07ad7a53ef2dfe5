// Package response writes the JSON envelope used by every API response.
// Huma operations get the same shape through the api package's transformer;
// this package serves the plain chi routes (uploads, rate limiting).
package response

import (
	"encoding/json"
	"net/http"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Code     string   `json:"code,omitempty"`
	Details  any      `json:"details,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Success  bool     `json:"success"`
}

// Write encodes envelope with the given status code.
func Write(w http.ResponseWriter, status int, envelope Envelope, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil && log != nil {
		log.WithError(err).Error("failed to encode JSON response")
	}
}

// JSON writes data in a success envelope, or an error envelope for status
// codes of 400 and above.
func JSON(w http.ResponseWriter, status int, data any, log *logger.Logger) {
	Write(w, status, Envelope{Success: status < 400, Data: data}, log)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, log *logger.Logger) {
	JSON(w, http.StatusOK, data, log)
}

// Created writes a created response (201 Created) with any warnings
// collected while handling the request.
func Created(w http.ResponseWriter, data any, warnings []string, log *logger.Logger) {
	Write(w, http.StatusCreated, Envelope{Success: true, Data: data, Warnings: warnings}, log)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, log *logger.Logger) {
	Write(w, status, Envelope{Error: message, Code: string(codeFor(status))}, log)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusBadRequest, message, log)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusUnauthorized, message, log)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusTooManyRequests, message, log)
}

// HandleError writes the response for err. Domain errors keep their status,
// code and details; anything else becomes a 500 without leaking the cause.
func HandleError(w http.ResponseWriter, err error, log *logger.Logger) {
	var derr *domainerrors.Error
	if domainerrors.As(err, &derr) {
		if derr.Code == domainerrors.CodeInternal || derr.Code == domainerrors.CodeStorage {
			if log != nil {
				log.WithError(err).Error("request failed")
			}
		}
		Write(w, derr.HTTPStatus(), Envelope{
			Error:   derr.Message,
			Code:    string(derr.Code),
			Details: derr.Details,
		}, log)
		return
	}

	if log != nil {
		log.WithError(err).Error("unhandled error")
	}
	Error(w, http.StatusInternalServerError, "internal server error", log)
}

func codeFor(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}

// CodeFor maps an HTTP status to the error code reported for it.
func CodeFor(status int) string { return string(codeFor(status)) }
