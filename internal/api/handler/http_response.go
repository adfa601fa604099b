package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/api/middleware"
)

// Response is the envelope every endpoint returns. Exactly one of Data or
// Error is set; the correlation id is echoed so clients can quote it when
// reporting a problem.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo carries a machine-readable code alongside the human message
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse wraps data in a success envelope
func NewResponse(data interface{}) *Response {
	return &Response{Data: data}
}

// NewErrorResponse wraps a code and message in an error envelope
func NewErrorResponse(code, message string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message}}
}

func respond(c *gin.Context, statusCode int, response *Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithData writes a success envelope with the given status
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	respond(c, statusCode, NewResponse(data))
}

// RespondWithError writes an error envelope with the given status
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, NewErrorResponse(code, message))
}

// RespondOK writes a 200 with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated writes a 201 with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondAccepted writes a 202, used when a payload is enqueued for the
// ingestion worker rather than processed inline
func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

// RespondBadRequest writes a 400 for malformed or invalid input
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// RespondNotFound writes a 404 for a missing entry, payout, or match
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondConflict writes a 409 for duplicate submissions and invalid
// status transitions
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

// RespondUnprocessable writes a 422 for payouts blocked by a hold or by
// missing earnings
func RespondUnprocessable(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, code, message)
}

// RespondBadGateway writes a 502 for upstream payout-provider failures
func RespondBadGateway(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadGateway, "PROVIDER_ERROR", message)
}

// RespondInternalError writes a 500 with a generic message. Details stay in
// the logs keyed by the correlation id.
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
