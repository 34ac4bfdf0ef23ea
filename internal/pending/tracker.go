// Package pending tracks asynchronous generation results that are not yet
// downloadable and promotes them once their URL answers.
package pending

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stencil/internal/metrics"
	"stencil/internal/session"
)

// Prober reports whether a result URL is ready to be fetched.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, url string) bool

func (f ProberFunc) Probe(ctx context.Context, url string) bool { return f(ctx, url) }

// HTTPProber issues a HEAD request and treats exactly 200 as ready.
// Any other status or transport error means "not yet" and is only logged.
type HTTPProber struct {
	Client *http.Client
	Logger zerolog.Logger
}

// NewHTTPProber returns a prober with a bounded per-request timeout.
func NewHTTPProber(timeout time.Duration, logger zerolog.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{Client: &http.Client{Timeout: timeout}, Logger: logger}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		p.Logger.Debug().Err(err).Str("url", url).Msg("probe request invalid")
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		p.Logger.Debug().Err(err).Str("url", url).Msg("probe failed")
		return false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.Logger.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("result not ready")
		return false
	}
	return true
}

// DefaultConcurrency bounds the number of probes in flight per check.
const DefaultConcurrency = 4

// Tracker probes pending URLs and moves ready ones into the session.
type Tracker struct {
	prober      Prober
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewTracker builds a tracker. concurrency <= 0 uses DefaultConcurrency.
func NewTracker(prober Prober, concurrency int, logger zerolog.Logger) *Tracker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Tracker{prober: prober, concurrency: concurrency, now: time.Now, logger: logger}
}

// CheckReady probes every URL once. Both returned lists keep input order.
func (t *Tracker) CheckReady(ctx context.Context, urls []string) (ready, stillPending []string) {
	if len(urls) == 0 {
		return nil, nil
	}
	results := make([]bool, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = t.prober.Probe(gctx, u)
			metrics.Probes.WithLabelValues(metrics.ReadyLabel(results[i])).Inc()
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range urls {
		if results[i] {
			ready = append(ready, u)
		} else {
			stillPending = append(stillPending, u)
		}
	}
	return ready, stillPending
}

// Track stores at most limit URLs as the session's pending set.
// limit <= 0 keeps every URL.
func Track(st *session.State, urls []string, limit int, operation, prompt string) {
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	st.SetPending(urls, operation, prompt)
}

// Promote makes the first ready URL the current result. With more than one
// ready URL all of them become the generated gallery, otherwise the gallery
// is cleared so it never lags behind the current result. Each ready URL is
// recorded in history under the pending batch's operation.
func Promote(st *session.State, ready []string, now time.Time) {
	if len(ready) == 0 {
		return
	}
	st.SetResult(ready[0])
	st.SetGallery(ready)
	for _, u := range ready {
		st.RecordHistory(u, st.PendingOperation, st.PendingPrompt, now)
	}
}

// Refresh runs one check over the session's pending set, promotes what is
// ready and keeps the rest pending. It returns the promoted URLs.
func (t *Tracker) Refresh(ctx context.Context, st *session.State) []string {
	if !st.HasPending() {
		return nil
	}
	ready, still := t.CheckReady(ctx, st.PendingURLs)
	Promote(st, ready, t.now())
	if still == nil {
		still = []string{}
	}
	st.PendingURLs = still
	if len(still) == 0 {
		st.PendingOperation = ""
		st.PendingPrompt = ""
	}
	t.logger.Debug().
		Str("session_id", st.ID).
		Int("ready", len(ready)).
		Int("pending", len(still)).
		Msg("pending check")
	return ready
}
