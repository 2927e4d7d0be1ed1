// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	apperrors "recordmap-service/internal/common/errors"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/metrics"
	"recordmap-service/internal/common/observability"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
)

const requestIDKey = "requestId"

// RequestID accepts the caller's X-Request-ID or assigns a fresh one,
// and echoes it on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Locals(requestIDKey, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

// Metrics records per-endpoint counters and latency for every request.
func Metrics(obs *observability.Observability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		endpoint := c.Route().Path
		status := fmt.Sprintf("%d", c.Response().StatusCode())
		elapsed := time.Since(start)

		metrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordRequest(c.UserContext(), endpoint, status)
			obs.RecordRequestDuration(c.UserContext(), endpoint, elapsed)
		}

		return err
	}
}

// errorResponder turns any error from the domain packages into the
// standard envelope with the right HTTP status.
type errorResponder struct {
	logger logger.Logger
}

func newErrorResponder(log logger.Logger) *errorResponder {
	return &errorResponder{logger: log}
}

// Respond normalizes err, logs it and writes the envelope.
func (r *errorResponder) Respond(c *fiber.Ctx, err error) error {
	stdErr := r.normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	requestID, _ := c.Locals(requestIDKey).(string)

	r.logger.Error("request failed", map[string]interface{}{
		"requestId":     requestID,
		"endpoint":      c.Route().Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"status":        status,
	})

	return c.Status(status).JSON(fiber.Map{
		"error":     stdErr,
		"requestId": requestID,
	})
}

// normalize ensures we always have a StandardError.
func (r *errorResponder) normalize(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var buildErr *soql.QueryBuildError
	if errors.As(err, &buildErr) {
		return apperrors.NewQueryBuildError(buildErr.Reason)
	}

	var fieldErr *soql.InvalidFieldError
	if errors.As(err, &fieldErr) {
		return apperrors.NewInvalidFieldError(fieldErr.Entity, fieldErr.Field)
	}

	var storeErr *records.RecordStoreError
	if errors.As(err, &storeErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewQueryTimeoutError(storeErr.Entity)
		}
		return apperrors.NewRecordStoreError(storeErr)
	}

	return apperrors.NewInternalError(err)
}
