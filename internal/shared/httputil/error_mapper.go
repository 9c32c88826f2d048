package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mesaYaBooking/internal/shared/validation"
)

// HTTPErrorInfo contains the HTTP status code and message for an error.
type HTTPErrorInfo struct {
	Status  int
	Message string
}

// ErrorMapping represents a single error to HTTP status/message mapping.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// ErrorMapper maps domain errors to HTTP status codes and messages.
// Each module builds one mapper for its handlers.
type ErrorMapper struct {
	mappings       []ErrorMapping
	defaultStatus  int
	defaultMessage string
	passthrough    bool
}

// NewErrorMapper creates a new ErrorMapper with default settings.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{
		mappings:       make([]ErrorMapping, 0),
		defaultStatus:  http.StatusInternalServerError,
		defaultMessage: "internal server error",
	}
}

// WithMapping adds an error mapping to the mapper.
func (m *ErrorMapper) WithMapping(err error, status int, message string) *ErrorMapper {
	m.mappings = append(m.mappings, ErrorMapping{
		Error:   err,
		Status:  status,
		Message: message,
	})
	return m
}

// WithDefault sets the default status and message for unmatched errors.
func (m *ErrorMapper) WithDefault(status int, message string) *ErrorMapper {
	m.defaultStatus = status
	m.defaultMessage = message
	return m
}

// WithMessagePassthrough makes matched mappings with an empty message reuse err.Error().
// Auth provider errors are surfaced verbatim this way.
func (m *ErrorMapper) WithMessagePassthrough() *ErrorMapper {
	m.passthrough = true
	return m
}

// Map converts an error to HTTP status and message.
func (m *ErrorMapper) Map(err error) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK, Message: ""}
	}
	if info, ok := mapContext(err); ok {
		return info
	}

	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			message := mapping.Message
			if message == "" && m.passthrough {
				message = err.Error()
			}
			return HTTPErrorInfo{Status: mapping.Status, Message: message}
		}
	}

	return HTTPErrorInfo{Status: m.defaultStatus, Message: m.defaultMessage}
}

// HTTPError converts err into an echo error ready to be returned from a handler.
// Validation failures always become 422 with the per-field messages.
func (m *ErrorMapper) HTTPError(err error) *echo.HTTPError {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]any{
			"message": "validation failed",
			"fields":  fields,
		}).SetInternal(err)
	}
	info := m.Map(err)
	return echo.NewHTTPError(info.Status, info.Message).SetInternal(err)
}

// QuickMap is a convenience function for quick error mapping without creating a mapper.
func QuickMap(err error, mappings ...ErrorMapping) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK, Message: ""}
	}
	if info, ok := mapContext(err); ok {
		return info
	}
	for _, mapping := range mappings {
		if errors.Is(err, mapping.Error) {
			return HTTPErrorInfo{Status: mapping.Status, Message: mapping.Message}
		}
	}
	return HTTPErrorInfo{Status: http.StatusInternalServerError, Message: "internal server error"}
}

func mapContext(err error) (HTTPErrorInfo, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return HTTPErrorInfo{Status: http.StatusGatewayTimeout, Message: "request timeout"}, true
	case errors.Is(err, context.Canceled):
		return HTTPErrorInfo{Status: http.StatusServiceUnavailable, Message: "request cancelled"}, true
	}
	return HTTPErrorInfo{}, false
}
