package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    response.CodeFor(status),
			Message: message,
		}
		// Huma's own request validation reports one error per location.
		if details := locationDetails(errs); len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

func locationDetails(errs []error) map[string]string {
	details := map[string]string{}
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) && detail.Location != "" {
			details[detail.Location] = detail.Message
		}
	}
	return details
}

// EnvelopeTransformer wraps every huma response body in response.Envelope.
// Errors keep their code and details; everything else is a success.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case nil:
		return nil, nil
	case *APIError:
		return response.Envelope{Error: body.Message, Code: body.Code, Details: body.Details}, nil
	case error:
		return response.Envelope{Error: body.Error(), Code: response.CodeFor(500)}, nil
	case response.Envelope, *response.Envelope:
		return body, nil
	default:
		return response.Envelope{Success: true, Data: body}, nil
	}
}
