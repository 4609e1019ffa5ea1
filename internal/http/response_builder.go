// Package http serves the budget tracker's JSON API.
//
// This file holds the fluent builder used to write every response and the
// mapping from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/importer"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ResponseBuilder collects status, headers and body before writing them once.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	value      any
	hasValue   bool
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body. It is encoded when the response is written.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.value = v
	b.hasValue = true
	return b
}

// Attachment sets a downloadable body.
func (b *ResponseBuilder) Attachment(contentType, filename string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.body = content
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.hasValue {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			b.statusCode = http.StatusInternalServerError
			encoded, _ = json.Marshal(ErrorBody{Error: "Failed to encode response"})
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFor maps a service error onto its response.
//
//	*core.ValidationError   422 with the field
//	importer index errors   422
//	core.ErrEmptySelection  400
//	core.ErrNotFound        404
//	*core.UpstreamError     502 with the collaborator's message
//	anything else           500
func ErrorFor(err error) *ResponseBuilder {
	var ve *core.ValidationError
	var ue *core.UpstreamError
	switch {
	case errors.As(err, &ve):
		return NewResponse().Status(http.StatusUnprocessableEntity).JSON(ErrorBody{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, importer.ErrIndexOutOfRange):
		return NewResponse().Status(http.StatusUnprocessableEntity).JSON(ErrorBody{Error: "Transaction index out of range", Field: "index"})
	case errors.Is(err, core.ErrEmptySelection):
		return BadRequestError("No transactions selected")
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("Not found")
	case errors.As(err, &ue):
		return ErrorResponse(http.StatusBadGateway, ue.UserMessage())
	default:
		return InternalServerError("Internal server error")
	}
}

// errorType names the class of err for logs.
func errorType(err error) string {
	var ue *core.UpstreamError
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, importer.ErrIndexOutOfRange):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrEmptySelection):
		return log.ErrorTypeEmptySelect
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.As(err, &ue):
		return log.ErrorTypeUpstream
	default:
		return log.ErrorTypeInternal
	}
}
