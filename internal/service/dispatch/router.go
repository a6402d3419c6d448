package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/analysis/intent"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
)

// Route names reported in Result.Route besides table names.
const (
	RouteFallback  = "fallback"
	RouteSmallTalk = "smalltalk"
	RouteIgnored   = "ignored"
)

// SmallTalk answers free text no table understood.
type SmallTalk interface {
	Reply(ctx context.Context, s *session.Session, text string) (string, error)
}

// Result is a composed response and the route that produced it.
type Result struct {
	Response messenger.Response
	Route    string
}

var intentPayloads = map[intent.Label]string{
	intent.Greeting: GetStarted,
	intent.Help:     SupportHelp,
	intent.Order:    SupportOrder,
	intent.Billing:  SupportBilling,
	intent.Sales:    SupportSales,
	intent.Goodbye:  SupportEnd,
}

// Router tries each table in order and falls back to a generic answer
// when none matches.
type Router struct {
	deps      Deps
	tables    []*Table
	smallTalk SmallTalk
	logger    *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithSmallTalk enables free-text replies for unrecognised messages.
func WithSmallTalk(st SmallTalk) Option {
	return func(r *Router) {
		r.smallTalk = st
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter builds a router over tables. With no tables the default set
// (menu, support, survey) is used.
func NewRouter(deps Deps, tables []*Table, opts ...Option) *Router {
	if len(tables) == 0 {
		tables = []*Table{Menu(deps), Support(deps), Rating(deps)}
	}
	r := &Router{deps: deps, tables: tables}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger).Named("dispatch")
	return r
}

// Route composes the response for a message or postback envelope.
func (r *Router) Route(ctx context.Context, s *session.Session, env messenger.Envelope) Result {
	res := r.route(ctx, s, env)
	metrics.Dispatches.WithLabelValues(res.Route).Inc()
	return res
}

func (r *Router) route(ctx context.Context, s *session.Session, env messenger.Envelope) Result {
	switch env.Kind {
	case messenger.KindPostback:
		return r.payload(s, env.Payload)

	case messenger.KindMessage:
		if env.IsEcho {
			return Result{Route: RouteIgnored}
		}
		if env.Payload != "" {
			return r.payload(s, env.Payload)
		}
		if env.HasAttachments && env.Text == "" {
			return Result{Response: r.fallback(s, "fallback.attachment"), Route: RouteFallback}
		}
		return r.text(ctx, s, env.Text)

	default:
		return Result{Route: RouteIgnored}
	}
}

// Dispatch tries every table for payload without falling back.
func (r *Router) Dispatch(s *session.Session, payload string) (Result, bool) {
	req := Request{Session: s, Payload: payload}
	for _, t := range r.tables {
		if resp, ok := t.Dispatch(req); ok {
			return Result{Response: resp, Route: t.Name()}, true
		}
	}
	return Result{}, false
}

func (r *Router) payload(s *session.Session, payload string) Result {
	if res, ok := r.Dispatch(s, payload); ok {
		return res
	}
	r.logger.Info("unrecognized payload", zap.String("payload", payload), zap.String("psid", s.UserID))
	return Result{Response: r.fallback(s, "fallback.any"), Route: RouteFallback}
}

func (r *Router) text(ctx context.Context, s *session.Session, text string) Result {
	if decision := intent.Analyze(text); decision.Matched() {
		if payload, ok := intentPayloads[decision.Intent]; ok {
			if res, ok := r.Dispatch(s, payload); ok {
				return res
			}
		}
	}

	if r.smallTalk != nil {
		reply, err := r.smallTalk.Reply(ctx, s, text)
		if err == nil && reply != "" {
			agent := r.deps.Personas.ByRole(persona.Care)
			return Result{
				Response: messenger.Response{messenger.TextWithPersona(reply, agent.ID)},
				Route:    RouteSmallTalk,
			}
		}
		if err != nil {
			r.logger.Warn("small talk failed", zap.String("psid", s.UserID), zap.Error(err))
		}
	}

	return Result{Response: r.fallback(s, "fallback.any"), Route: RouteFallback}
}

func (r *Router) fallback(s *session.Session, key string) messenger.Response {
	return messenger.Response{messenger.QuickReplies(
		r.deps.t(s, key, nil),
		[]messenger.QuickReply{
			messenger.TextReply(r.deps.t(s, "get_started.help", nil), SupportHelp),
			messenger.TextReply(r.deps.t(s, "get_started.sales", nil), SupportSales),
		},
	)}
}

// PrivateReply composes the reply to a post or comment on the page feed.
// There is no session yet, so the fallback locale is used. Private replies
// carry a single message, so the help entry is a postback button.
func (r *Router) PrivateReply() messenger.Response {
	locale := r.deps.Catalog.Fallback()
	return messenger.Response{messenger.ButtonTemplate(
		r.deps.Catalog.T(locale, "private_reply.welcome", nil),
		[]messenger.Button{
			messenger.PostbackButton(r.deps.Catalog.T(locale, "get_started.help", nil), SupportHelp),
		},
	)}
}
