package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cinema/internal/catalog"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusForKind maps a catalog error kind to an HTTP status.
func StatusForKind(kind string) int {
	switch kind {
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindValidation:
		return http.StatusBadRequest
	case catalog.KindTimeout, catalog.KindBusy, catalog.KindClosed:
		return http.StatusServiceUnavailable
	case catalog.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *handlers) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, errBadRequest) {
		respondError(c, http.StatusBadRequest, catalog.KindValidation, err)
		return
	}
	kind := catalog.Kind(err)
	status := StatusForKind(kind)
	if status >= http.StatusInternalServerError {
		logger := requestLogger(c, h.logger)
		logger.Error("catalog request failed",
			"op", op,
			"error_kind", kind,
			"error", err,
		)
	}
	respondError(c, status, kind, err)
}
