// Package http provides the JSON API over the expense services.
//
// This file implements a builder for the JSON envelope every endpoint
// returns: {"data": ..., "notification": {...}} on success and
// {"error": ..., "details": ...} on failure.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is a toast the client shows after a write.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

type envelope struct {
	Data         any           `json:"data,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Error        string        `json:"error,omitempty"`
	Details      string        `json:"details,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Notify attaches a notification.
func (b *JSONResponseBuilder) Notify(t NotificationType, message string) *JSONResponseBuilder {
	b.body.Notification = &Notification{Type: t, Message: message}
	return b
}

// Success is a convenience method for success notifications.
func (b *JSONResponseBuilder) Success(message string) *JSONResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

// Failure sets the error fields and an error notification with the same
// message.
func (b *JSONResponseBuilder) Failure(message, details string) *JSONResponseBuilder {
	b.body.Error = message
	b.body.Details = details
	return b.Notify(NotificationError, message)
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message, details string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Failure(message, details)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message, details string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, details)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message, details string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, details)
}

// InternalServerError creates a 500 Internal Server Error response. details
// must not carry the underlying error.
func InternalServerError(message, details string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, details)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message, "")
}
