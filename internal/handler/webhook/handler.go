package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/service/signature"
	"github.com/zhouzirui/paw-relay/backend/internal/service/triage"
)

const (
	modeSubscribe = "subscribe"
	objectPage    = "page"
	eventReceived = "EVENT_RECEIVED"

	// 与原服务的 10mb 限制一致
	maxBodyBytes = 10 << 20
)

// Processor handles a verified callback.
type Processor interface {
	Process(ctx context.Context, cb messenger.Callback) error
}

// Handler webhook 的 HTTP 处理器
type Handler struct {
	cfg       config.MessengerConfig
	processor Processor
	logger    *zap.Logger
	async     func(func())
}

// Option configures a Handler.
type Option func(*Handler)

// WithRunner replaces the function used to run background processing.
func WithRunner(run func(func())) Option {
	return func(h *Handler) {
		h.async = run
	}
}

// New 创建 webhook 处理器
func New(cfg config.MessengerConfig, processor Processor, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		cfg:       cfg,
		processor: processor,
		logger:    logging.OrNop(logger).Named("webhook"),
		async:     func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册 webhook 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.handleVerify)
	r.Post("/webhook", h.handleEvent)
}

// handleVerify answers the platform's subscription handshake.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "" || token == "" {
		http.NotFound(w, r)
		return
	}

	if mode != modeSubscribe || token != h.cfg.VerifyToken {
		h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// handleEvent authenticates a callback, acknowledges it and triages it in
// the background.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.reject(w, http.StatusBadRequest, "unreadable_body", err)
		return
	}

	valid, err := signature.VerifyRequest(body, r.Header, h.cfg.AppSecret)
	switch {
	case err != nil:
		h.reject(w, http.StatusForbidden, "bad_signature", err)
		return
	case !valid:
		if h.cfg.RequireSignature {
			h.reject(w, http.StatusForbidden, "missing_signature", errors.New("signature header absent"))
			return
		}
		h.logger.Warn("couldn't validate the signature")
	}

	var cb messenger.Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		h.reject(w, http.StatusBadRequest, "malformed_json", err)
		return
	}

	if cb.Object != objectPage {
		metrics.WebhookDeliveries.WithLabelValues("unsupported_object").Inc()
		h.logger.Info("unsupported callback object", zap.String("object", cb.Object))
		http.NotFound(w, r)
		return
	}

	metrics.WebhookDeliveries.WithLabelValues("accepted").Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, eventReceived)

	id := uuid.NewString()
	ctx := triage.WithDeliveryID(context.WithoutCancel(r.Context()), id)
	h.logger.Debug("callback accepted", zap.String("delivery_id", id), zap.Int("entries", len(cb.Entry)))
	h.async(func() {
		if err := h.processor.Process(ctx, cb); err != nil {
			h.logger.Info("callback processed with errors", zap.String("delivery_id", id), zap.Error(err))
		}
	})
}

func (h *Handler) reject(w http.ResponseWriter, status int, outcome string, err error) {
	metrics.WebhookDeliveries.WithLabelValues(outcome).Inc()
	h.logger.Warn("webhook rejected", zap.String("outcome", outcome), zap.Error(err))
	w.WriteHeader(status)
}
