package server

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/routes"
)

const preferencesSession = "tb_prefs"

// SetupRouter configures and returns the Gin router with all middleware
// and routes.
func (s *Server) SetupRouter() (*gin.Engine, error) {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(s.logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
	}))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))
	r.Use(appmiddleware.OTELGinMiddleware("tractorbazar"))
	r.Use(appmiddleware.CORSMiddleware())
	r.Use(appmiddleware.SecurityMiddleware())

	// Preference cookie session (language etc.), separate from auth cookies.
	r.Use(sessions.Sessions(preferencesSession, cookie.NewStore([]byte(s.cfg.JWT.SecretKey))))
	r.Use(appmiddleware.LanguageMiddleware())

	err := routes.Setup(r, routes.Dependencies{
		Config: s.cfg,
		DBPool: s.dbPool,
		Redis:  s.redis,
		Store:  s.store,
		Hub:    s.hub,
		Logger: s.logger,
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// zapContextFunc enriches access logs with request and trace identifiers.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		var fields []zapcore.Field

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		return fields
	}
}
