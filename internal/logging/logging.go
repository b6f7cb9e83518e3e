package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// Setup настраивает стандартный логгер logrus.
func Setup(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Component возвращает логгер компонента.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// GormLevel подбирает уровень SQL-лога GORM: запросы пишутся только в debug.
func GormLevel() logger.LogLevel {
	switch {
	case logrus.IsLevelEnabled(logrus.DebugLevel):
		return logger.Info
	case logrus.IsLevelEnabled(logrus.WarnLevel):
		return logger.Warn
	default:
		return logger.Error
	}
}

// RequestLogger - middleware chi, пишущий по строке на запрос.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				entry := log.WithFields(logrus.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start),
					"request_id": middleware.GetReqID(r.Context()),
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Info("request served")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
