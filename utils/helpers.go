package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"splitledger/ledger"
)

// Standard API response
type APIResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    interface{}             `json:"data,omitempty"`
	Error   *ledger.ValidationError `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, message)
}

func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// ValidationFailed reports a rejected operation with its machine-readable
// reason and the offending values.
func ValidationFailed(c *gin.Context, ve *ledger.ValidationError) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: ve.Message,
		Error:   ve,
	})
}

// EngineError maps an error from the ledger or a directory onto a response.
// It reports whether err was one of the engine's typed errors; otherwise the
// caller is expected to log it and answer with InternalError.
func EngineError(c *gin.Context, err error) bool {
	var ve *ledger.ValidationError
	var nf *ledger.NotFoundError
	switch {
	case errors.As(err, &ve):
		ValidationFailed(c, ve)
	case errors.As(err, &nf):
		NotFound(c, nf.Error())
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		Conflict(c, "Ledger changed concurrently, please retry")
	default:
		return false
	}
	return true
}

// BindError answers a request whose body could not be bound. Amount decoding
// failures carry a ValidationError and keep their reason.
func BindError(c *gin.Context, err error) {
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		ValidationFailed(c, ve)
		return
	}
	BadRequest(c, err.Error())
}

// Parse UUID from string
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// Pagination helpers
type PaginationQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

func (p *PaginationQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate returns the page of items p selects.
func Paginate[T any](items []T, p PaginationQuery) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return items[start:end]
}
