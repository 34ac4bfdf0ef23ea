// Package editor runs one editing action end to end: the remote call, URL
// extraction, and either an immediate result or a tracked pending batch that
// gets a short bounded auto-check.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stencil/internal/infra"
	"stencil/internal/metrics"
	"stencil/internal/normalize"
	"stencil/internal/pending"
	"stencil/internal/poller"
	"stencil/internal/providers/bria"
	"stencil/internal/session"
)

// Status is the state of an operation as reported to the UI.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// ErrInvalidInput marks requests rejected before any remote call.
var ErrInvalidInput = errors.New("editor: invalid input")

// Outcome is the result of one operation.
type Outcome struct {
	Status  Status         `json:"status"`
	URL     string         `json:"url,omitempty"`
	URLs    []string       `json:"urls,omitempty"`
	Pending []string       `json:"pending,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Message string         `json:"message"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// AutoSaver persists the session into its selected project.
type AutoSaver interface {
	AutoSave(ctx context.Context, st *session.State) error
}

// Options configures an Editor. Client is required.
type Options struct {
	Client  *bria.Client
	Tracker *pending.Tracker
	Poller  *poller.Poller
	Saver   AutoSaver
	Logger  *infra.Logger
}

type Editor struct {
	client  *bria.Client
	tracker *pending.Tracker
	poller  *poller.Poller
	saver   AutoSaver
	logger  *infra.Logger
	now     func() time.Time
}

// New builds an editor, filling in a default tracker and poller.
func New(opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = pending.NewTracker(pending.NewHTTPProber(0, *logger), 0, *logger)
	}
	p := opts.Poller
	if p == nil {
		p = poller.New(poller.DefaultMaxAttempts, poller.DefaultInterval)
	}
	if p.Observe == nil {
		p.Observe = func(_ int, ready bool) {
			metrics.PollRounds.WithLabelValues(metrics.ReadyLabel(ready)).Inc()
		}
	}
	return &Editor{
		client:  opts.Client,
		tracker: tracker,
		poller:  p,
		saver:   opts.Saver,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether st can reach the generation API.
func (e *Editor) Enabled(st *session.State) bool {
	return e.client.WithAPIKey(st.APIKey).HasCredentials()
}

func (e *Editor) remote(st *session.State) (*bria.Client, error) {
	c := e.client.WithAPIKey(st.APIKey)
	if !c.HasCredentials() {
		return nil, bria.ErrMissingAPIKey
	}
	return c, nil
}

// call is one remote operation: how it is labelled in history and how many
// URLs it may yield.
type call struct {
	operation string
	prompt    string
	sync      bool
	limit     int
	success   string
}

func (e *Editor) run(ctx context.Context, st *session.State, c call, fn func(*bria.Client) (map[string]any, error)) (Outcome, error) {
	client, err := e.remote(st)
	if err != nil {
		return failed(err), err
	}
	resp, err := fn(client)
	if err != nil {
		e.logger.Warn().Err(err).Str("session_id", st.ID).Str("operation", c.operation).Msg("remote call failed")
		return failed(err), err
	}
	var out Outcome
	if c.sync {
		out, err = e.finishSync(st, c, resp)
	} else {
		out, err = e.finishAsync(ctx, st, c, resp)
	}
	if err != nil {
		return out, err
	}
	e.autoSave(ctx, st)
	return out, nil
}

func (e *Editor) finishSync(st *session.State, c call, resp map[string]any) (Outcome, error) {
	res := normalize.Extract(resp, c.limit)
	if !res.Found() {
		return missing(resp)
	}
	urls := res.All()
	st.SetResult(urls[0])
	st.SetGallery(urls)
	st.RecordHistory(urls[0], c.operation, c.prompt, e.now())
	return Outcome{Status: StatusReady, URL: urls[0], URLs: urls, Message: c.success}, nil
}

func (e *Editor) finishAsync(ctx context.Context, st *session.State, c call, resp map[string]any) (Outcome, error) {
	urls := normalize.ExtractURLs(resp, c.limit)
	if len(urls) == 0 {
		return missing(resp)
	}
	pending.Track(st, urls, c.limit, c.operation, c.prompt)
	e.logger.Info().Str("session_id", st.ID).Str("operation", c.operation).Int("pending", len(st.PendingURLs)).Msg("generation started")

	ready := e.poller.PollUntilReady(ctx, func(ctx context.Context) bool {
		return len(e.tracker.Refresh(ctx, st)) > 0
	})
	if ready {
		return e.readyOutcome(st, c.success), nil
	}
	return e.pendingOutcome(st), nil
}

func (e *Editor) readyOutcome(st *session.State, msg string) Outcome {
	out := Outcome{Status: StatusReady, URL: st.EditedImage, Message: msg}
	if len(st.GeneratedImages) > 0 {
		out.URLs = append([]string(nil), st.GeneratedImages...)
	} else if st.EditedImage != "" {
		out.URLs = []string{st.EditedImage}
	}
	if st.HasPending() {
		out.Pending = append([]string(nil), st.PendingURLs...)
	}
	return out
}

func (e *Editor) pendingOutcome(st *session.State) Outcome {
	n := len(st.PendingURLs)
	plural := ""
	if n > 1 {
		plural = "s"
	}
	return Outcome{
		Status:  StatusPending,
		URL:     st.EditedImage,
		Pending: append([]string(nil), st.PendingURLs...),
		Message: fmt.Sprintf("Still generating your image%s... Please check again in a moment.", plural),
	}
}

// CheckPending re-probes the pending batch once, without an attempt budget.
// With wait > 0 it keeps polling for up to wait before giving up.
func (e *Editor) CheckPending(ctx context.Context, st *session.State, wait time.Duration) Outcome {
	if !st.HasPending() {
		out := e.readyOutcome(st, "No images are pending.")
		if st.EditedImage == "" {
			out.Status = StatusFailed
		}
		return out
	}
	ready := len(e.tracker.Refresh(ctx, st)) > 0
	if !ready && wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, wait)
		ready = e.poller.WaitUntilReady(wctx, func(ctx context.Context) bool {
			return len(e.tracker.Refresh(ctx, st)) > 0
		})
		cancel()
	}
	if !ready {
		return e.pendingOutcome(st)
	}
	e.autoSave(ctx, st)
	return e.readyOutcome(st, "Image ready!")
}

func (e *Editor) autoSave(ctx context.Context, st *session.State) {
	if e.saver == nil {
		return
	}
	if err := e.saver.AutoSave(ctx, st); err != nil {
		e.logger.Warn().Err(err).Str("session_id", st.ID).Msg("auto-save")
	}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Message: bria.Describe(err)}
}

func missing(resp map[string]any) (Outcome, error) {
	return Outcome{
		Status:  StatusFailed,
		Message: "Could not extract image URL from response",
		Raw:     resp,
	}, normalize.MissError(resp)
}

func invalid(msg string) (Outcome, error) {
	return Outcome{Status: StatusFailed, Message: msg}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.TrimSuffix(msg, "."))
}
