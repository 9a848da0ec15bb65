package logger

import (
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Init installs the process-wide logger. Development gets human-readable
// text at Debug; everything else gets JSON at Info. When a Sentry DSN is
// configured, Error records are fanned out to Sentry as well.
func Init(isDev bool, sentryDSN string) {
	handler := baseHandler(isDev)

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			slog.Warn("sentry init failed, continuing without it", "error", err)
		} else {
			sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
			handler = slogmulti.Fanout(handler, sentryHandler)
		}
	}

	slog.SetDefault(slog.New(handler))
}

func baseHandler(isDev bool) slog.Handler {
	if isDev {
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
}
