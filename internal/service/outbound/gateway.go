// Package outbound sends composed responses to the Send API.
//
// Delivery is best effort and at most once: every unit is attempted in
// order, a failed unit is logged and does not stop the next one, and
// nothing is retried.
package outbound

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/metrics"
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
)

// Sender posts one serialized unit.
type Sender interface {
	SendMessage(ctx context.Context, msg messenger.SendRequest) error
}

// UnitResult is the outcome of one unit.
type UnitResult struct {
	Index int
	Err   error
}

// Report collects the outcome of a Deliver call.
type Report struct {
	Recipient messenger.Recipient
	Results   []UnitResult
}

// Failed counts units that could not be sent.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Gateway serializes responses to the platform.
type Gateway struct {
	sender  Sender
	limiter *rate.Limiter
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewGateway builds a gateway. rps <= 0 disables pacing.
func NewGateway(sender Sender, rps float64, logger *zap.Logger) *Gateway {
	limit := rate.Inf
	burst := 0
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	return &Gateway{
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logging.OrNop(logger).Named("outbound"),
	}
}

// Deliver sends every unit of resp to the recipient, in order, and waits
// for each send to finish before starting the next.
func (g *Gateway) Deliver(ctx context.Context, to messenger.Recipient, resp messenger.Response) Report {
	report := Report{Recipient: to, Results: make([]UnitResult, 0, len(resp))}

	for i, unit := range resp {
		err := g.limiter.Wait(ctx)
		if err == nil {
			err = g.sender.SendMessage(ctx, messenger.NewSendRequest(to, unit))
		}

		report.Results = append(report.Results, UnitResult{Index: i, Err: err})
		if err != nil {
			metrics.Sends.WithLabelValues("failed").Inc()
			g.logger.Error("unable to send message",
				zap.String("recipient", to.String()),
				zap.Int("unit", i),
				zap.String("persona_id", unit.PersonaID),
				zap.Error(err),
			)
			continue
		}
		metrics.Sends.WithLabelValues("sent").Inc()
	}
	return report
}

// Send delivers resp in the background. The caller does not learn the
// outcome; failures are only logged.
func (g *Gateway) Send(to messenger.Recipient, resp messenger.Response) {
	if resp.Empty() {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.Deliver(context.Background(), to, resp)
	}()
}

// Wait blocks until every background Send has finished.
func (g *Gateway) Wait() {
	g.wg.Wait()
}
