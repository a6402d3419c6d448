package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
)

// ProfileFetcher loads a user profile from the platform.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (*session.Profile, error)
}

// LocaleResolver maps a profile locale to a supported one.
type LocaleResolver interface {
	Resolve(locale string) string
}

// Registry owns every Session. Entries are bounded by capacity and expire
// after the configured TTL; an evicted user is fetched again on next contact.
type Registry struct {
	cache    *expirable.LRU[string, *session.Session]
	fetcher  ProfileFetcher
	locales  LocaleResolver
	fallback string
	logger   *zap.Logger
}

// NewRegistry builds a registry. fetcher may be nil, in which case sessions
// keep the fallback locale.
func NewRegistry(cfg config.SessionConfig, fetcher ProfileFetcher, locales LocaleResolver, logger *zap.Logger) *Registry {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 10000
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	fallback := cfg.DefaultLocale
	if fallback == "" {
		fallback = "en_US"
	}

	// 淘汰回调在缓存锁内执行，不能回调缓存方法
	onEvict := func(string, *session.Session) {
		metrics.Sessions.Dec()
	}

	return &Registry{
		cache:    expirable.NewLRU[string, *session.Session](capacity, onEvict, ttl),
		fetcher:  fetcher,
		locales:  locales,
		fallback: fallback,
		logger:   logging.OrNop(logger).Named("session"),
	}
}

// Resolve returns the session for userID. Known users are returned at once.
// For a first contact the profile fetch runs to completion (success or
// failure) before the session is stored and returned, so callers never
// dispatch against an unsettled profile. Concurrent first contacts for the
// same user may both fetch; the last one stored wins.
func (r *Registry) Resolve(ctx context.Context, userID string) (*session.Session, bool) {
	if s, ok := r.cache.Get(userID); ok {
		r.logger.Debug("profile already exists", zap.String("psid", userID), zap.String("locale", s.Locale()))
		return s, false
	}

	s := session.New(userID, r.fallback)
	r.populate(ctx, s)

	r.cache.Add(userID, s)
	metrics.Sessions.Set(float64(r.cache.Len()))
	return s, true
}

// Lookup returns a cached session without fetching.
func (r *Registry) Lookup(userID string) (*session.Session, bool) {
	return r.cache.Peek(userID)
}

// Len is the number of cached sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

func (r *Registry) populate(ctx context.Context, s *session.Session) {
	if r.fetcher == nil {
		return
	}

	profile, err := r.fetcher.FetchProfile(ctx, s.UserID)
	if err != nil {
		metrics.ProfileFetches.WithLabelValues("failed").Inc()
		r.logger.Warn("profile is unavailable", zap.String("psid", s.UserID), zap.Error(err))
		return
	}
	metrics.ProfileFetches.WithLabelValues("ok").Inc()

	locale := r.fallback
	if r.locales != nil {
		locale = r.locales.Resolve(profile.Locale)
	}
	s.Apply(profile, locale)
	r.logger.Info("profile fetched", zap.String("psid", s.UserID), zap.String("locale", locale))
}
