package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。构造完成后只读。
type Config struct {
	Server    ServerConfig
	Messenger MessengerConfig
	Personas  PersonaConfig
	Session   SessionConfig
	AI        AIConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	messenger, err := loadMessengerConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Messenger: messenger,
		Personas:  loadPersonaConfig(),
		Session:   session,
		AI:        ai,
		Log:       loadLogConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// MessengerConfig 描述 Messenger Platform 的凭证与端点。
type MessengerConfig struct {
	Platform         string
	PageID           string
	AppID            string
	PageAccessToken  string
	AppSecret        string
	VerifyToken      string
	AppURL           string
	RequireSignature bool
	SendRPS          float64
	HTTPTimeout      time.Duration
}

// WebhookURL is the callback address registered with the platform.
func (c MessengerConfig) WebhookURL() string {
	if c.AppURL == "" {
		return ""
	}
	return strings.TrimRight(c.AppURL, "/") + "/webhook"
}

func loadMessengerConfig() (MessengerConfig, error) {
	cfg := MessengerConfig{
		Platform:        strings.TrimRight(getEnvOrDefault("MESSENGER_PLATFORM", "https://graph.facebook.com/v21.0"), "/"),
		PageID:          strings.TrimSpace(os.Getenv("PAGE_ID")),
		AppID:           strings.TrimSpace(os.Getenv("APP_ID")),
		PageAccessToken: strings.TrimSpace(os.Getenv("PAGE_ACCESS_TOKEN")),
		AppSecret:       strings.TrimSpace(os.Getenv("APP_SECRET")),
		VerifyToken:     strings.TrimSpace(os.Getenv("VERIFY_TOKEN")),
		AppURL:          strings.TrimSpace(os.Getenv("APP_URL")),
	}

	var missing []string
	for _, required := range []struct{ key, value string }{
		{"PAGE_ACCESS_TOKEN", cfg.PageAccessToken},
		{"APP_SECRET", cfg.AppSecret},
		{"VERIFY_TOKEN", cfg.VerifyToken},
	} {
		if required.value == "" {
			missing = append(missing, required.key)
		}
	}
	if len(missing) > 0 {
		return MessengerConfig{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	requireSig, err := parseBoolEnv("MESSENGER_REQUIRE_SIGNATURE", false)
	if err != nil {
		return MessengerConfig{}, err
	}
	cfg.RequireSignature = requireSig

	rps, err := parseOptionalFloatEnv("MESSENGER_SEND_RPS")
	if err != nil {
		return MessengerConfig{}, err
	}
	if rps != nil {
		if *rps < 0 {
			return MessengerConfig{}, fmt.Errorf("invalid MESSENGER_SEND_RPS value %v: must not be negative", *rps)
		}
		cfg.SendRPS = *rps
	}

	timeout, err := parseDurationEnv("MESSENGER_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return MessengerConfig{}, err
	}
	cfg.HTTPTimeout = timeout

	return cfg, nil
}

// PersonaEntry 是 persona 的原始配置。
type PersonaEntry struct {
	ID   string
	Name string
}

// PersonaConfig 描述各角色对应的 persona。
type PersonaConfig struct {
	Billing PersonaEntry
	Order   PersonaEntry
	Sales   PersonaEntry
	Care    PersonaEntry
}

// Provisioned reports whether any persona id has been configured.
func (c PersonaConfig) Provisioned() bool {
	return c.Billing.ID != "" || c.Order.ID != "" || c.Sales.ID != "" || c.Care.ID != ""
}

func loadPersonaConfig() PersonaConfig {
	care := strings.TrimSpace(os.Getenv("PERSONA_CARE"))
	if care == "" {
		care = strings.TrimSpace(os.Getenv("PERSONA_SUPPORT"))
	}

	return PersonaConfig{
		Billing: PersonaEntry{
			ID:   strings.TrimSpace(os.Getenv("PERSONA_BILLING")),
			Name: getEnvOrDefault("PERSONA_BILLING_NAME", "Riley"),
		},
		Order: PersonaEntry{
			ID:   strings.TrimSpace(os.Getenv("PERSONA_ORDER")),
			Name: getEnvOrDefault("PERSONA_ORDER_NAME", "Peter"),
		},
		Sales: PersonaEntry{
			ID:   strings.TrimSpace(os.Getenv("PERSONA_SALES")),
			Name: getEnvOrDefault("PERSONA_SALES_NAME", "Laura"),
		},
		Care: PersonaEntry{
			ID:   care,
			Name: getEnvOrDefault("PERSONA_CARE_NAME", "Jessica"),
		},
	}
}

// SessionConfig 控制会话缓存的容量与过期时间。
type SessionConfig struct {
	Capacity      int
	TTL           time.Duration
	DefaultLocale string
}

func loadSessionConfig() (SessionConfig, error) {
	capacity := 10000
	if override, err := parseOptionalIntEnv("SESSION_CAPACITY"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return SessionConfig{}, fmt.Errorf("invalid SESSION_CAPACITY value %d: must be positive", *override)
		}
		capacity = *override
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		Capacity:      capacity,
		TTL:           ttl,
		DefaultLocale: getEnvOrDefault("DEFAULT_LOCALE", "en_US"),
	}, nil
}

// LogConfig 日志配置。
type LogConfig struct {
	Environment string
	Level       string
	ServiceName string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Environment: getEnvOrDefault("APP_ENV", "production"),
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		ServiceName: getEnvOrDefault("SERVICE_NAME", "paw-relay"),
	}
}

// AIConfig 描述大模型相关配置，用于自由文本的兜底回复。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
