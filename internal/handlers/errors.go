// internal/handlers/errors.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/loan-manager/internal/services"
	"github.com/javajoker/loan-manager/internal/utils"
)

// handleServiceError writes the envelope for an error returned by a service.
func handleServiceError(c *gin.Context, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": utils.GetRequestIDFromContext(c),
		}).WithError(err).Error("unhandled service error")
		utils.InternalErrorResponse(c, "")
		return
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"kind":       appErr.Kind,
			"request_id": utils.GetRequestIDFromContext(c),
		}).WithError(appErr.Err).Error(appErr.Message)
		utils.InternalErrorResponse(c, appErr.Message)
		return
	}

	if len(appErr.Fields) > 0 {
		utils.ErrorResponse(c, status, appErr.Message, appErr.Fields)
		return
	}
	utils.ErrorResponse(c, status, appErr.Message, nil)
}

// queryErrors collects malformed query parameters keyed by parameter name.
type queryErrors map[string]string

func (q queryErrors) respond(c *gin.Context) bool {
	if len(q) == 0 {
		return false
	}
	utils.ValidationErrorResponse(c, q)
	return true
}

// bindJSON decodes the request body into req. On failure it writes a 400 whose
// errors map names the offending field, or "body" when the JSON is malformed.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	field := "body"
	message := err.Error()
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field = typeErr.Field
		message = field + " must be of type " + typeErr.Type.String()
	}

	utils.BadRequestResponse(c, "Invalid request body", map[string]string{field: message})
	return false
}
