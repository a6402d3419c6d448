package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	model "github.com/zhouzirui/paw-relay/backend/internal/model/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/session"
)

type fakeFetcher struct {
	calls   atomic.Int32
	delay   time.Duration
	profile *model.Profile
	err     error
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, userID string) (*model.Profile, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

type locales map[string]bool

func (l locales) Resolve(locale string) string {
	if l[locale] {
		return locale
	}
	return "en_US"
}

var supported = locales{"en_US": true, "de_DE": true}

func newRegistry(f session.ProfileFetcher, capacity int) *session.Registry {
	return session.NewRegistry(config.SessionConfig{Capacity: capacity, TTL: time.Hour, DefaultLocale: "en_US"}, f, supported, nil)
}

func TestResolveFirstContactWaitsForProfile(t *testing.T) {
	f := &fakeFetcher{delay: 20 * time.Millisecond, profile: &model.Profile{FirstName: "Ana", Locale: "de_DE"}}
	reg := newRegistry(f, 10)

	s, created := reg.Resolve(context.Background(), "U1")
	require.True(t, created)
	require.NotNil(t, s.Profile(), "profile must be settled before Resolve returns")
	assert.Equal(t, "Ana", s.FirstName())
	assert.Equal(t, "de_DE", s.Locale())
}

func TestResolveKnownUserSkipsFetch(t *testing.T) {
	f := &fakeFetcher{profile: &model.Profile{FirstName: "Ana", Locale: "en_US"}}
	reg := newRegistry(f, 10)

	first, _ := reg.Resolve(context.Background(), "U1")
	second, created := reg.Resolve(context.Background(), "U1")

	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestResolveFetchFailureDefaultsLocale(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	reg := newRegistry(f, 10)

	s, created := reg.Resolve(context.Background(), "U1")
	require.True(t, created)
	assert.Nil(t, s.Profile())
	assert.Equal(t, "en_US", s.Locale())
	assert.Equal(t, "", s.FirstName())

	_, ok := reg.Lookup("U1")
	assert.True(t, ok, "failed fetch still creates the session")
}

func TestResolveUnsupportedLocaleFallsBack(t *testing.T) {
	f := &fakeFetcher{profile: &model.Profile{FirstName: "Yui", Locale: "ja_JP"}}
	s, _ := newRegistry(f, 10).Resolve(context.Background(), "U2")
	assert.Equal(t, "en_US", s.Locale())
	assert.Equal(t, "Yui", s.FirstName())
}

func TestRegistryIsBounded(t *testing.T) {
	f := &fakeFetcher{profile: &model.Profile{Locale: "en_US"}}
	reg := newRegistry(f, 2)

	for _, id := range []string{"A", "B", "C"} {
		reg.Resolve(context.Background(), id)
	}
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Lookup("A")
	assert.False(t, ok, "oldest entry should be evicted")
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Sessions))
}

func TestExpiredSessionsLowerGauge(t *testing.T) {
	f := &fakeFetcher{profile: &model.Profile{Locale: "en_US"}}
	reg := session.NewRegistry(config.SessionConfig{Capacity: 10, TTL: 50 * time.Millisecond, DefaultLocale: "en_US"}, f, supported, nil)

	reg.Resolve(context.Background(), "A")
	reg.Resolve(context.Background(), "B")
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Sessions))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Sessions) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, reg.Len())
}

func TestConcurrentFirstContactConverges(t *testing.T) {
	f := &fakeFetcher{delay: 5 * time.Millisecond, profile: &model.Profile{FirstName: "Ana", Locale: "en_US"}}
	reg := newRegistry(f, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, _ := reg.Resolve(context.Background(), "U1")
			assert.Equal(t, "Ana", s.FirstName())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Len())
	assert.GreaterOrEqual(t, f.calls.Load(), int32(1))
}

func TestNilFetcherKeepsFallback(t *testing.T) {
	s, created := newRegistry(nil, 10).Resolve(context.Background(), "U1")
	assert.True(t, created)
	assert.Equal(t, "en_US", s.Locale())
}
