package handlers

import (
	"time"

	"trainboard-backend/internal/config"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

// SetupSentry wires Sentry error reporting into the echo instance when a DSN
// is configured. Without a DSN the middleware is skipped entirely.
func SetupSentry(e *echo.Echo, cfg *config.Config) {
	if cfg.Sentry.DSN == "" {
		return
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		TracesSampleRate: 0.2,
	}); err != nil {
		e.Logger.Warnf("Sentry initialization failed: %v", err)
		return
	}

	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
		Timeout: 3 * time.Second,
	}))
}

// CaptureError forwards an error to Sentry if it was initialized.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
