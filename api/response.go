package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"polling-backend/service"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

const internalErrorMessage = "internal server error"

// errorWriter maps service errors to status codes. Details of unexpected
// errors are only exposed when showDetails is set.
type errorWriter struct {
	showDetails bool
	log         *slog.Logger
}

func (w errorWriter) write(c *gin.Context, err error) {
	var (
		verr *service.ValidationError
		nerr *service.NotFoundError
		aerr *service.AuthError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: nerr.Error()})
	case errors.As(err, &aerr):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: aerr.Error()})
	default:
		var serr *service.StoreError
		if !errors.As(err, &serr) {
			w.log.Error("unexpected error",
				slog.String("path", c.FullPath()),
				slog.Any("error", err),
			)
		}
		_ = c.Error(err)

		msg := internalErrorMessage
		if w.showDetails {
			msg += ": " + err.Error()
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
