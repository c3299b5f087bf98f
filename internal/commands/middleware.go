package commands

import (
	"fmt"
	"runtime/debug"
	"time"

	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	gameService "github.com/KirkDiggler/rpg-helper-bot/internal/services/game"
	"github.com/KirkDiggler/rpg-helper-bot/internal/uuid"
	"go.uber.org/zap"
)

// Metric names reported by MetricsMiddleware
const (
	MetricCommandsTotal   = "commands_total"
	MetricCommandErrors   = "command_errors_total"
	MetricCommandDuration = "command_duration_seconds"
)

// MetricsCollector collects metrics
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// LoggingMiddleware assigns a request id and logs every routed command
func LoggingMiddleware(logger *zap.Logger, gen uuid.Generator) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) (*Result, error) {
			ctx.RequestID = gen.New()
			log := logger.With(
				zap.String("request_id", ctx.RequestID),
				zap.String("user_id", ctx.UserID),
				zap.String("command", ctx.Command),
			)

			start := time.Now()
			result, err := next.Handle(ctx)
			duration := time.Since(start)

			switch {
			case err != nil:
				log.Warn("command failed", zap.Duration("duration", duration), zap.Error(err))
			case result != nil && result.Err != nil:
				log.Warn("command failed", zap.Duration("duration", duration), zap.Error(result.Err))
			case result == nil:
				log.Debug("command ignored", zap.Duration("duration", duration))
			default:
				log.Info("command handled", zap.Duration("duration", duration))
			}

			return result, err
		})
	}
}

// ErrorMiddleware turns handler errors into replies so no failure escapes
// the router. Errors without a player facing message get DefaultUserMessage.
func ErrorMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) (*Result, error) {
			result, err := next.Handle(ctx)
			if err == nil {
				return result, nil
			}

			msg := userMessage(err)
			if msg == DefaultUserMessage {
				logger.Error("unexpected command error",
					zap.String("request_id", ctx.RequestID),
					zap.String("command", ctx.Command),
					zap.Any("meta", dnderr.GetMeta(err)),
					zap.Error(err))
			}

			return &Result{Content: msg, Err: err}, nil
		})
	}
}

// RecoveryMiddleware converts a panic into an internal error
func RecoveryMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) (result *Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered in command",
						zap.String("request_id", ctx.RequestID),
						zap.String("command", ctx.Command),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()))

					result = nil
					err = NewInternalError(fmt.Errorf("panic: %v", r))
				}
			}()

			return next.Handle(ctx)
		})
	}
}

// RequireGameMiddleware rejects every command but load until a game is loaded
func RequireGameMiddleware(svc gameService.Service) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) (*Result, error) {
			if ctx.Command != CommandLoad && !svc.Loaded() {
				return nil, dnderr.FailedPrecondition(gameService.NoGameMessage)
			}
			return next.Handle(ctx)
		})
	}
}

// MetricsMiddleware counts commands by outcome and times them. Commands that
// known rejects are user typed free text and share the "unknown" label.
func MetricsMiddleware(collector MetricsCollector, known func(command string) bool) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) (*Result, error) {
			start := time.Now()
			result, err := next.Handle(ctx)
			duration := time.Since(start)

			command := ctx.Command
			if known == nil || !known(command) {
				command = "unknown"
			}

			status := "ok"
			switch {
			case err != nil:
				status = "error"
			case result == nil:
				status = "ignored"
			}

			collector.IncrementCounter(MetricCommandsTotal, map[string]string{
				"command": command,
				"status":  status,
			})
			collector.ObserveHistogram(MetricCommandDuration, duration.Seconds(), map[string]string{
				"command": command,
			})

			if err != nil {
				collector.IncrementCounter(MetricCommandErrors, map[string]string{
					"command": command,
					"code":    string(dnderr.GetCode(err)),
				})
			}

			return result, err
		})
	}
}
