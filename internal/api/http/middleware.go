package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/api/dto"
	"github.com/networkhq/network-intake/internal/observability"
	"github.com/networkhq/network-intake/internal/ratelimit"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

// MsgEndpointNotFound is returned for unmatched routes.
const MsgEndpointNotFound = "Endpoint not found"

// RegisterMiddlewares attaches global middlewares. The request logger wraps the
// error handler so it records the status actually written. Credentials are
// allowed only for an explicit origin; a wildcard origin serves anonymous CORS.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, allowedOrigin string, timeout time.Duration) {
	allowedOrigin = strings.TrimSpace(allowedOrigin)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigin,
		AllowCredentials: !wildcardOrigin(allowedOrigin),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,OPTIONS",
	}))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger))
}

func wildcardOrigin(origins string) bool {
	for _, o := range strings.Split(origins, ",") {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("method", c.Method()),
						zap.String("path", c.Path()),
						zap.String("code", domainErr.Code),
						zap.Error(domainErr))
				}
				if domainErr.RetryAfter > 0 {
					c.Set(fiber.HeaderRetryAfter, strconv.Itoa(domainErr.RetryAfter))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(dto.ErrorResponse{
					Success:    false,
					Error:      domainErr.Message,
					Duplicate:  domainErr.Duplicate,
					RetryAfter: domainErr.RetryAfter,
					Details:    domainErr.Details,
				})
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also maps the framework's own errors, such as unmatched
// routes or oversized bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return apperrors.ToDomainError(apperrors.NewNotFound(MsgEndpointNotFound))
		case fe.Code < 500:
			return apperrors.NewDomainError("REQUEST_REJECTED", fe.Message, fe.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

// notFoundHandler terminates the chain for unmatched routes.
func notFoundHandler(c *fiber.Ctx) error {
	return apperrors.NewNotFound(MsgEndpointNotFound)
}

// RateLimitMiddleware rejects requests over the limiter's budget for the
// client IP. A limiter backend failure lets the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := clientKey(c)
		decision, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable; allowing request",
				zap.String("limiter", limiter.Name()),
				zap.Error(err))
			return c.Next()
		}

		metrics.RecordRateLimit(limiter.Name(), decision.Allowed)
		if !decision.Allowed {
			logger.Info("rate limit exceeded",
				zap.String("limiter", limiter.Name()),
				zap.String("client", key),
				zap.Int("retry_after", decision.RetryAfterSeconds()))
			return apperrors.NewRateLimited(decision.RetryAfterSeconds())
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		return c.Next()
	}
}

func clientKey(c *fiber.Ctx) string {
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
