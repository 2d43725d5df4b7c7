package handler

import (
	"errors"
	"net/http"

	"github.com/annazecevic/catalog-service/dto"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/middleware"
	"github.com/annazecevic/catalog-service/validation"
	"github.com/gin-gonic/gin"
)

const (
	msgNotFound      = "resource not found"
	msgInternalError = "internal server error"
	msgNotAllowed    = "request is not allowed"
)

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: msgNotFound})
}

func internalError(c *gin.Context, err error) {
	logger.Error(logger.EventDBError, "store operation failed", logger.Fields(
		"request_id", middleware.RequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err.Error(),
	))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: msgInternalError})
}

// badRequest answers a body that could not be decoded or failed validation.
func badRequest(c *gin.Context, err error) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		logger.Warn(logger.EventValidationFailure, "request failed validation", logger.Fields(
			"request_id", middleware.RequestID(c),
			"path", c.Request.URL.Path,
			"errors", fieldErrs.Error(),
		))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: fieldErrs})
		return
	}
	logger.Warn(logger.EventValidationFailure, "malformed request body", logger.Fields(
		"request_id", middleware.RequestID(c),
		"path", c.Request.URL.Path,
		"error", err.Error(),
	))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
}
