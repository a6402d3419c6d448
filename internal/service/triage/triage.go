// Package triage classifies webhook entries and drives each event through
// session resolution, dispatch and delivery.
package triage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/dispatch"
	"github.com/zhouzirui/paw-relay/backend/internal/service/monitor"
	"github.com/zhouzirui/paw-relay/backend/internal/service/outbound"
)

var (
	ErrUnrecognizedEntry = errors.New("entry has neither messaging events nor changes")
	ErrMalformedEntry    = errors.New("entry could not be decoded")
	ErrMissingSender     = errors.New("messaging event has no sender")
)

// FieldFeed is the only page change field handled.
const FieldFeed = "feed"

// SessionResolver resolves the session of a sender.
type SessionResolver interface {
	Resolve(ctx context.Context, userID string) (*session.Session, bool)
}

// Composer turns envelopes into responses.
type Composer interface {
	Route(ctx context.Context, s *session.Session, env messenger.Envelope) dispatch.Result
	PrivateReply() messenger.Response
}

// Deliverer sends a response and reports per-unit outcomes.
type Deliverer interface {
	Deliver(ctx context.Context, to messenger.Recipient, resp messenger.Response) outbound.Report
}

// Publisher receives a record for every handled event.
type Publisher interface {
	Publish(rec monitor.Record)
}

type deliveryKey struct{}

// WithDeliveryID tags ctx with the id of the webhook delivery.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryKey{}, id)
}

// DeliveryID returns the delivery id stored in ctx.
func DeliveryID(ctx context.Context) string {
	id, _ := ctx.Value(deliveryKey{}).(string)
	return id
}

// Triager handles webhook entries.
type Triager struct {
	sessions  SessionResolver
	composer  Composer
	deliverer Deliverer
	publisher Publisher
	logger    *zap.Logger
}

// New builds a Triager. publisher may be nil.
func New(sessions SessionResolver, composer Composer, deliverer Deliverer, publisher Publisher, logger *zap.Logger) *Triager {
	return &Triager{
		sessions:  sessions,
		composer:  composer,
		deliverer: deliverer,
		publisher: publisher,
		logger:    logging.OrNop(logger).Named("triage"),
	}
}

// Process triages every entry of a callback. Entries are started in array
// order and run concurrently; one failing entry does not stop the others.
// The returned error joins every entry error.
func (t *Triager) Process(ctx context.Context, cb messenger.Callback) error {
	var (
		g    errgroup.Group
		errs = make([]error, len(cb.Entry))
	)
	for i, entry := range cb.Entry {
		g.Go(func() error {
			if err := t.Triage(ctx, entry); err != nil {
				t.logger.Warn("entry discarded",
					zap.String("delivery_id", DeliveryID(ctx)),
					zap.Int("entry", i),
					zap.Error(err),
				)
				errs[i] = fmt.Errorf("entry %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Triage handles a single entry. Only the first messaging event of an
// entry is processed; later events in the same entry are skipped.
func (t *Triager) Triage(ctx context.Context, entry messenger.Entry) error {
	if entry.DecodeErr != nil {
		metrics.Events.WithLabelValues(string(messenger.KindUnknown)).Inc()
		t.publish(ctx, monitor.Record{Kind: string(messenger.KindUnknown), Error: entry.DecodeErr.Error()})
		return fmt.Errorf("%w: %v", ErrMalformedEntry, entry.DecodeErr)
	}

	if len(entry.Changes) > 0 {
		return t.change(ctx, entry.Changes[0])
	}

	if len(entry.Messaging) == 0 {
		t.publish(ctx, monitor.Record{Kind: string(messenger.KindUnknown), Error: ErrUnrecognizedEntry.Error()})
		return ErrUnrecognizedEntry
	}
	if skipped := len(entry.Messaging) - 1; skipped > 0 {
		t.logger.Debug("batched messaging events skipped", zap.Int("skipped", skipped))
	}

	env := messenger.Normalize(entry.Messaging[0])
	metrics.Events.WithLabelValues(string(env.Kind)).Inc()

	if env.Receipt() {
		return nil
	}
	if env.Kind == messenger.KindUnknown {
		t.logger.Debug("unsupported messaging event", zap.String("psid", env.SenderID))
		return nil
	}
	if env.SenderID == "" {
		return ErrMissingSender
	}

	s, created := t.sessions.Resolve(ctx, env.SenderID)
	t.logger.Debug("session resolved",
		zap.String("psid", env.SenderID),
		zap.Bool("created", created),
		zap.String("locale", s.Locale()),
	)

	res := t.composer.Route(ctx, s, env)
	rec := monitor.Record{Kind: string(env.Kind), SenderID: env.SenderID, Route: res.Route, Units: len(res.Response)}
	if !res.Response.Empty() {
		report := t.deliverer.Deliver(ctx, messenger.User(env.SenderID), res.Response)
		rec.Failed = report.Failed()
	}
	t.publish(ctx, rec)
	return nil
}

func (t *Triager) change(ctx context.Context, ch messenger.Change) error {
	env := messenger.NormalizeChange(ch)
	metrics.Events.WithLabelValues(string(env.Kind)).Inc()

	if env.ChangeField != FieldFeed {
		t.logger.Info("unsupported page change field", zap.String("field", env.ChangeField))
		return nil
	}

	var to messenger.Recipient
	switch env.ItemType {
	case messenger.ItemPost:
		to = messenger.Recipient{PostID: env.ObjectID}
	case messenger.ItemComment:
		to = messenger.Recipient{CommentID: env.ObjectID}
	default:
		t.logger.Info("unsupported feed change type", zap.String("item", env.ItemType))
		t.publish(ctx, monitor.Record{Kind: string(env.Kind), Route: dispatch.RouteIgnored})
		return nil
	}

	if env.ObjectID == "" {
		t.logger.Warn("feed change without object id", zap.String("item", env.ItemType))
		return nil
	}

	resp := t.composer.PrivateReply()
	report := t.deliverer.Deliver(ctx, to, resp)
	t.publish(ctx, monitor.Record{
		Kind:   string(env.Kind),
		Route:  "private_reply",
		Units:  len(resp),
		Failed: report.Failed(),
	})
	return nil
}

func (t *Triager) publish(ctx context.Context, rec monitor.Record) {
	if t.publisher == nil {
		return
	}
	rec.DeliveryID = DeliveryID(ctx)
	t.publisher.Publish(rec)
}
