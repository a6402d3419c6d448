package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/handler/monitor"
	"github.com/zhouzirui/paw-relay/backend/internal/handler/webhook"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the webhook and operator handlers.
// monitorHandler may be nil.
func NewRouter(logger *zap.Logger, webhookHandler *webhook.Handler, monitorHandler *monitor.Handler) http.Handler {
	logger = logging.OrNop(logger)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	// 平台探活
	r.Get("/", handlePing)
	r.Get("/health", handlePing)
	r.Handle("/metrics", promhttp.Handler())

	webhookHandler.RegisterRoutes(r)
	if monitorHandler != nil {
		monitorHandler.RegisterRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "not found")
	})

	return r
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	utils.RespondStatus(w, http.StatusOK, "Ok")
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
