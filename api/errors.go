package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON and records it on the context for the request log.
// Internal failures are not echoed to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)

	resp := errorResponse{Error: err.Error()}
	switch status {
	case http.StatusBadRequest:
		if verr := domain.AsValidationError(err); verr != nil {
			resp.Fields = verr.Fields()
		}
	case http.StatusBadGateway:
		resp.Error = "upstream service unavailable"
	case http.StatusInternalServerError:
		resp.Error = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, field, msg string) {
	verr := domain.NewValidationError()
	verr.Add(field, msg)
	respondError(c, verr)
}
