package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps an application error to its HTTP status and writes the
// error envelope. Unknown errors are reported as 500 without leaking the
// underlying message.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrValidation:
		status = http.StatusBadRequest
	case apperrors.ErrConflict, apperrors.ErrReferentialIntegrity:
		status = http.StatusConflict
	case apperrors.ErrUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrForbidden:
		status = http.StatusForbidden
	default:
		message = "internal server error"
	}

	c.JSON(status, NewErrorResponse(message))
}
