package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adstream/internal/apperr"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail writes err using its kind. The raw error is attached to the gin context for the audit log.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	Error(c, StatusForKind(kind), apperr.MessageOf(err), map[string]any{"kind": string(kind)})
}

func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func badRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, map[string]any{"kind": string(apperr.KindInvalidArgument)})
}
