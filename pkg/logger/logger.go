package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/middleware/requestid"
)

// Context keys the auth middleware fills for request log lines.
const (
	PrincipalKey = "principal_id"
	RoleKey      = "principal_role"
)

// ServiceName tags every log line.
const ServiceName = "exhibit-flow"

// New builds the process logger: JSON with ISO8601 timestamps by default,
// console encoding on request, development defaults outside production.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapCfg.Encoding = "json"
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
	}
	zapCfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Log.Level))
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build(zap.Fields(zap.String("service", ServiceName), zap.String("env", cfg.Env)))
}

// ParseLevel maps a configured level name onto zap, falling back to info.
func ParseLevel(raw string) zapcore.Level {
	level := zapcore.InfoLevel
	if raw != "" && level.UnmarshalText([]byte(raw)) != nil {
		return zapcore.InfoLevel
	}
	return level
}

// GinMiddleware writes one line per request. The route template is logged
// rather than the raw path because signed download tokens travel in the
// path and must not end up in log storage.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if principal := c.GetString(PrincipalKey); principal != "" {
			fields = append(fields, zap.String("principal_id", principal), zap.String("principal_role", c.GetString(RoleKey)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			l.Error("http_request", fields...)
		case status >= 400:
			l.Warn("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}
