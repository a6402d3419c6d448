package monitor

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	monitorservice "github.com/zhouzirui/paw-relay/backend/internal/service/monitor"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	bufferSize   = 64
)

// Handler streams triage records to operators over a websocket.
type Handler struct {
	hub         *monitorservice.Hub
	verifyToken string
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// New 创建监控处理器。verifyToken 与 webhook 校验共用。
func New(hub *monitorservice.Hub, verifyToken string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:         hub,
		verifyToken: verifyToken,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logging.OrNop(logger).Named("monitor"),
	}
}

// RegisterRoutes 注册监控路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("verify_token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	records, unsubscribe := h.hub.Subscribe(bufferSize)
	defer unsubscribe()
	h.logger.Info("monitor attached", zap.String("remote", r.RemoteAddr))

	// 只读控制帧，连接关闭时退出
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("monitor read error", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.logger.Info("monitor detached", zap.String("remote", r.RemoteAddr))
			return
		case <-r.Context().Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(rec); err != nil {
				h.logger.Debug("monitor write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
