package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidStatus), errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPostingNotFound),
		errors.Is(err, entity.ErrSubmissionNotFound),
		errors.Is(err, entity.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError hides internal failures behind a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(middleware.RequestIDKey),
		}).Error("Request failed")
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Success: false, Error: message})
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func currentActor(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, entity.ErrUnauthorized)
	}
	return actor, ok
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// bindOptionalJSON treats an empty body as an empty object.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
