package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Status is the body of the ping routes.
type Status struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// RespondStatus 发送状态响应，status 与 code 相同
func RespondStatus(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Status{Status: status, Code: status, Message: message})
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
