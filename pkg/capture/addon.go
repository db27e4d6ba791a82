// Package capture turns proxied HTTP flows into dashboard exchanges. The
// hooks sit on the proxy hot path and never block or fail; everything that
// touches the network runs on a bounded worker pool behind them.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pragmaticfish/sushify/internal/dashboard"
	"github.com/pragmaticfish/sushify/internal/logging"
	"github.com/pragmaticfish/sushify/internal/metrics"
	"github.com/pragmaticfish/sushify/internal/storage"
	"github.com/pragmaticfish/sushify/pkg/exchange"
)

// Config carries the tunables of the capture pipeline. Zero worker, queue
// and tracker sizes fall back to the defaults.
type Config struct {
	Classifier *Classifier
	Dashboard  *dashboard.Client
	Archive    storage.Storage // nil disables archiving

	Exchange exchange.Options

	Workers         uint
	QueueSize       uint
	TrackerMaxFlows int
}

// Addon receives flow events from the proxy and delivers matching exchanges
// to the dashboard.
type Addon struct {
	classifier *Classifier
	tracker    *startTracker
	client     *dashboard.Client
	archive    storage.Storage
	opts       exchange.Options

	jobs chan deliveryJob
	wg   sync.WaitGroup

	mu        sync.RWMutex
	closing   bool
	closeOnce sync.Once
}

type deliveryJob struct {
	flow     *exchange.Flow
	start    time.Time
	observed time.Time
}

// New builds the capture addon and starts its delivery workers.
func New(c Config) (*Addon, error) {
	if c.Classifier == nil {
		return nil, errors.New("classifier can not be empty")
	}
	if c.Dashboard == nil {
		return nil, errors.New("dashboard client can not be empty")
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.TrackerMaxFlows <= 0 {
		c.TrackerMaxFlows = 8192
	}

	tracker, err := newStartTracker(c.TrackerMaxFlows)
	if err != nil {
		return nil, err
	}

	a := &Addon{
		classifier: c.Classifier,
		tracker:    tracker,
		client:     c.Dashboard,
		archive:    c.Archive,
		opts:       c.Exchange,
		jobs:       make(chan deliveryJob, c.QueueSize),
	}

	for i := uint(0); i < c.Workers; i++ {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for job := range a.jobs {
				a.deliver(job)
			}
		}()
	}

	return a, nil
}

// OnRequest observes a request leaving through the proxy. Non-AI traffic is
// ignored.
func (a *Addon) OnRequest(f *exchange.Flow) {
	defer a.recoverHook("request")

	if !a.classifier.ShouldCapture(f.Request.Method, f.Request.URL, f.Request.Body) {
		return
	}

	metrics.FlowsObserved.WithLabelValues("request").Inc()
	a.tracker.Put(f.ID, time.Now())
	metrics.TrackedFlows.Set(float64(a.tracker.Len()))
}

// OnResponse observes a flow whose response arrived. Matching flows are
// queued for delivery; when the queue is full the flow is dropped so the
// proxy never stalls.
func (a *Addon) OnResponse(f *exchange.Flow) {
	defer a.recoverHook("response")

	if !a.classifier.ShouldCapture(f.Request.Method, f.Request.URL, f.Request.Body) {
		return
	}

	metrics.FlowsObserved.WithLabelValues("response").Inc()
	a.enqueue(f)
}

// OnError observes a flow that failed in transit. The failure is recorded
// like a response, with the transport error classified for display.
func (a *Addon) OnError(f *exchange.Flow) {
	defer a.recoverHook("error")

	if !a.classifier.ShouldCapture(f.Request.Method, f.Request.URL, f.Request.Body) {
		return
	}

	// The error outcome wins over any partial response on the flow.
	f.Response = nil

	metrics.FlowsObserved.WithLabelValues("error").Inc()
	a.enqueue(f)
}

// Close stops accepting flows and waits for queued deliveries to finish.
func (a *Addon) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closing = true
		a.mu.Unlock()

		close(a.jobs)
		a.wg.Wait()
	})
}

func (a *Addon) enqueue(f *exchange.Flow) {
	job := deliveryJob{
		flow:     f,
		start:    a.tracker.Take(f.ID),
		observed: time.Now(),
	}
	metrics.TrackedFlows.Set(float64(a.tracker.Len()))

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closing {
		return
	}

	select {
	case a.jobs <- job:
	default:
		metrics.QueueDrops.Inc()
		logging.L.Warn("Delivery queue is full, dropping the exchange",
			zap.String("flow_id", f.ID),
			zap.String("url", f.Request.URL),
		)
	}
}

func (a *Addon) deliver(job deliveryJob) {
	ctx := context.Background()

	if !a.client.CaptureEnabled(ctx) {
		logging.L.Debug("Capture is off, skipping the exchange", zap.String("flow_id", job.flow.ID))
		return
	}

	e := exchange.Assemble(job.flow, job.start, job.observed, a.opts)

	t := prometheus.NewTimer(metrics.DeliveryDuration)
	err := a.client.PushExchange(ctx, e)
	t.ObserveDuration()

	var statusErr *dashboard.StatusError
	switch {
	case errors.As(err, &statusErr):
		metrics.Deliveries.WithLabelValues("rejected").Inc()
		logging.L.Warn("Dashboard rejected the exchange",
			zap.String("exchange_id", e.ID),
			zap.String("dashboard", a.client.BaseURL()),
			zap.Int("status", statusErr.StatusCode),
		)
	case err != nil:
		metrics.Deliveries.WithLabelValues("error").Inc()
		logging.L.Error("error in pushing the exchange to the dashboard",
			zap.String("exchange_id", e.ID),
			zap.String("dashboard", a.client.BaseURL()),
			zap.Error(err),
		)
	default:
		metrics.Deliveries.WithLabelValues("delivered").Inc()
		logging.L.Info("Captured exchange",
			zap.String("exchange_id", e.ID),
			zap.String("method", e.Method),
			zap.String("url", e.URL),
			zap.Int64("latency_ms", e.LatencyMs),
		)
	}

	if a.archive != nil {
		if err := a.archive.Store(e); err != nil {
			logging.L.Error("Error in archiving the exchange into Storage",
				zap.String("exchange_id", e.ID),
				zap.Error(err),
			)
		}
	}
}

func (a *Addon) recoverHook(hook string) {
	if r := recover(); r != nil {
		logging.L.Error("Recovered from a panic in a capture hook",
			zap.String("hook", hook),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
	}
}
