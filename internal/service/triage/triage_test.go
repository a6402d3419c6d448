package triage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	model "github.com/zhouzirui/paw-relay/backend/internal/model/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/dispatch"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
	"github.com/zhouzirui/paw-relay/backend/internal/service/monitor"
	"github.com/zhouzirui/paw-relay/backend/internal/service/outbound"
	"github.com/zhouzirui/paw-relay/backend/internal/service/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/survey"
)

type slowFetcher struct {
	delay time.Duration
	err   error
}

func (f slowFetcher) FetchProfile(ctx context.Context, userID string) (*model.Profile, error) {
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Profile{FirstName: "Ana", Locale: "en_US"}, nil
}

type delivery struct {
	to   messenger.Recipient
	resp messenger.Response
}

type recordingDeliverer struct {
	mu  sync.Mutex
	got []delivery
}

func (d *recordingDeliverer) Deliver(_ context.Context, to messenger.Recipient, resp messenger.Response) outbound.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, delivery{to: to, resp: resp})
	return outbound.Report{Recipient: to}
}

func (d *recordingDeliverer) deliveries() []delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery(nil), d.got...)
}

// observingComposer records what the router saw when it was invoked.
type observingComposer struct {
	*dispatch.Router
	mu        sync.Mutex
	firstName []string
}

func (c *observingComposer) Route(ctx context.Context, s *model.Session, env messenger.Envelope) dispatch.Result {
	c.mu.Lock()
	c.firstName = append(c.firstName, s.FirstName())
	c.mu.Unlock()
	return c.Router.Route(ctx, s, env)
}

type fixture struct {
	triager   *Triager
	registry  *session.Registry
	deliverer *recordingDeliverer
	composer  *observingComposer
	hub       *monitor.Hub
}

func newFixture(t *testing.T, fetcher session.ProfileFetcher) fixture {
	t.Helper()
	catalog, err := i18n.Load("en_US")
	require.NoError(t, err)

	deps := dispatch.Deps{
		Personas: persona.NewMemoryStore(map[persona.Role]persona.Persona{
			persona.Billing: {ID: "p-billing", Name: "Riley"},
			persona.Care:    {ID: "p-care", Name: "Jessica"},
		}),
		Catalog: catalog,
		Survey:  survey.NewGenerator(catalog),
	}

	reg := session.NewRegistry(config.SessionConfig{Capacity: 100, TTL: time.Hour, DefaultLocale: "en_US"}, fetcher, catalog, nil)
	composer := &observingComposer{Router: dispatch.NewRouter(deps, nil)}
	deliverer := &recordingDeliverer{}
	hub := monitor.NewHub()

	return fixture{
		triager:   New(reg, composer, deliverer, hub, nil),
		registry:  reg,
		deliverer: deliverer,
		composer:  composer,
		hub:       hub,
	}
}

func messageEntry(sender, text string) messenger.Entry {
	return messenger.Entry{Messaging: []messenger.MessagingEvent{{
		Sender:  &messenger.Participant{ID: sender},
		Message: &messenger.IncomingMessage{Text: text},
	}}}
}

func postbackEntry(sender, payload string) messenger.Entry {
	return messenger.Entry{Messaging: []messenger.MessagingEvent{{
		Sender:   &messenger.Participant{ID: sender},
		Postback: &messenger.Postback{Payload: payload},
	}}}
}

func TestTriageTextCreatesSessionAndReplies(t *testing.T) {
	f := newFixture(t, slowFetcher{})

	require.NoError(t, f.triager.Triage(context.Background(), messageEntry("U1", "hi")))

	_, ok := f.registry.Lookup("U1")
	assert.True(t, ok)

	got := f.deliverer.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, "U1", got[0].to.ID)
	assert.Contains(t, got[0].resp[0].Message.Text, "Hi Ana!")
}

func TestTriageDispatchWaitsForFirstProfileFetch(t *testing.T) {
	f := newFixture(t, slowFetcher{delay: 30 * time.Millisecond})

	require.NoError(t, f.triager.Triage(context.Background(), postbackEntry("U1", dispatch.SupportBilling)))

	assert.Equal(t, []string{"Ana"}, f.composer.firstName)
}

func TestTriageProfileFailureStillDispatches(t *testing.T) {
	f := newFixture(t, slowFetcher{err: errors.New("status 500")})

	require.NoError(t, f.triager.Triage(context.Background(), postbackEntry("U1", dispatch.SupportEnd)))

	got := f.deliverer.deliveries()
	require.Len(t, got, 1)
	require.Len(t, got[0].resp, 2)
	assert.Equal(t, "p-care", got[0].resp[0].PersonaID)
}

func TestTriageDiscardsReceipts(t *testing.T) {
	f := newFixture(t, slowFetcher{})

	for _, ev := range []messenger.MessagingEvent{
		{Sender: &messenger.Participant{ID: "U1"}, Read: &messenger.Receipt{Watermark: 1}},
		{Sender: &messenger.Participant{ID: "U1"}, Delivery: &messenger.Receipt{MIDs: []string{"m"}}},
	} {
		require.NoError(t, f.triager.Triage(context.Background(), messenger.Entry{Messaging: []messenger.MessagingEvent{ev}}))
	}

	assert.Empty(t, f.deliverer.deliveries())
	assert.Equal(t, 0, f.registry.Len(), "receipts must not create sessions")
}

func TestTriageOnlyFirstMessagingEvent(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	entry := messageEntry("U1", "hi")
	entry.Messaging = append(entry.Messaging, messenger.MessagingEvent{
		Sender:  &messenger.Participant{ID: "U2"},
		Message: &messenger.IncomingMessage{Text: "hello"},
	})

	require.NoError(t, f.triager.Triage(context.Background(), entry))

	got := f.deliverer.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, "U1", got[0].to.ID)
	_, ok := f.registry.Lookup("U2")
	assert.False(t, ok)
}

func TestTriageUnrecognizedEntry(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	err := f.triager.Triage(context.Background(), messenger.Entry{ID: "page"})
	assert.ErrorIs(t, err, ErrUnrecognizedEntry)
}

func TestTriageMalformedEntry(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	records, cancel := f.hub.Subscribe(4)
	defer cancel()

	err := f.triager.Triage(context.Background(), messenger.Entry{DecodeErr: errors.New("bad shape")})
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.Empty(t, f.deliverer.deliveries())

	rec := <-records
	assert.Equal(t, string(messenger.KindUnknown), rec.Kind)
	assert.Equal(t, "bad shape", rec.Error)
}

func TestTriageOptinIgnored(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	entry := messenger.Entry{Messaging: []messenger.MessagingEvent{{
		Sender: &messenger.Participant{ID: "U2"},
		Optin:  []byte(`{"type":"notification_messages","token_expiry_timestamp":1714185600000}`),
	}}}

	require.NoError(t, f.triager.Triage(context.Background(), entry))
	assert.Empty(t, f.deliverer.deliveries())
	assert.Equal(t, 0, f.registry.Len())
}

func TestTriageMissingSender(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	err := f.triager.Triage(context.Background(), messenger.Entry{Messaging: []messenger.MessagingEvent{{
		Message: &messenger.IncomingMessage{Text: "hi"},
	}}})
	assert.ErrorIs(t, err, ErrMissingSender)
}

func TestTriageFeedPostPrivateReply(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	entry := messenger.Entry{Changes: []messenger.Change{{
		Field: FieldFeed,
		Value: messenger.ChangeValue{Item: messenger.ItemPost, PostID: "P1"},
	}}}

	require.NoError(t, f.triager.Triage(context.Background(), entry))

	got := f.deliverer.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, messenger.Recipient{PostID: "P1"}, got[0].to)
}

func TestTriageFeedCommentPrivateReply(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	entry := messenger.Entry{Changes: []messenger.Change{{
		Field: FieldFeed,
		Value: messenger.ChangeValue{Item: messenger.ItemComment, CommentID: "C1"},
	}}}

	require.NoError(t, f.triager.Triage(context.Background(), entry))

	got := f.deliverer.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, messenger.Recipient{CommentID: "C1"}, got[0].to)
}

func TestTriageFeedLikeDiscarded(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	records, cancel := f.hub.Subscribe(4)
	defer cancel()

	entry := messenger.Entry{Changes: []messenger.Change{{Field: FieldFeed, Value: messenger.ChangeValue{Item: "like"}}}}
	require.NoError(t, f.triager.Triage(WithDeliveryID(context.Background(), "d-1"), entry))

	assert.Empty(t, f.deliverer.deliveries())
	rec := <-records
	assert.Equal(t, "d-1", rec.DeliveryID)
	assert.Equal(t, dispatch.RouteIgnored, rec.Route)
}

func TestTriageOtherChangeFieldDiscarded(t *testing.T) {
	f := newFixture(t, slowFetcher{})
	entry := messenger.Entry{Changes: []messenger.Change{{Field: "ratings"}}}
	require.NoError(t, f.triager.Triage(context.Background(), entry))
	assert.Empty(t, f.deliverer.deliveries())
}

func TestProcessHandlesEveryEntry(t *testing.T) {
	f := newFixture(t, slowFetcher{delay: 5 * time.Millisecond})
	cb := messenger.Callback{Object: "page", Entry: []messenger.Entry{
		messageEntry("U1", "hi"),
		{ID: "broken"},
		{DecodeErr: errors.New("bad shape")},
		postbackEntry("U2", dispatch.SupportHelp),
	}}

	err := f.triager.Process(context.Background(), cb)
	assert.ErrorIs(t, err, ErrUnrecognizedEntry)
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.Len(t, f.deliverer.deliveries(), 2)
}
