// Package response writes the JSON envelopes of the API: {"data": ...},
// {"message": ...} and {"error": ...}.
package response

import (
	"encoding/json"
	"net/http"
	"roombook/infras/otel"
	"roombook/shared/constant"
	"roombook/shared/failure"
	"roombook/shared/logger"

	"github.com/rs/zerolog/log"
)

const headerContentTypeOptions = "X-Content-Type-Options"

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error *string `json:"error,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, Message{Message: &message})
}

func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, Data[any]{Data: &payload})
}

// WithError maps err to its status code. Server errors are logged here and
// rolled back transactions only report a generic message.
func WithError(writer http.ResponseWriter, err error) {
	writeError(writer, err, "")
}

// WithTracedError records err on the handler scope and writes it. action
// names the failed step in the log, e.g. "approve booking".
func WithTracedError(writer http.ResponseWriter, scope otel.Scope, err error, action string) {
	scope.TraceError(err)
	writeError(writer, err, action)
}

func writeError(writer http.ResponseWriter, err error, action string) {
	code := failure.GetCode(err)

	event := log.Debug()
	if code >= http.StatusInternalServerError {
		event = log.Error()
	}

	if action != "" {
		event = event.Str("action", action)
	}

	event.Err(err).Int("status", code).Msg("request failed")

	message := failure.Message(err)

	write(writer, code, Error{Error: &message})
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)

		code = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	header := writer.Header()
	header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	header.Set(headerContentTypeOptions, "nosniff")

	writer.WriteHeader(code)

	if _, err = writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
