// Package dispatcher implements the event dispatcher (§4.5): a
// cooperative poll loop that drains eventsource.Source and relays each
// event to the Updater's matching mutation endpoint.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fireclub/vsearch/internal/eventsource"
	"go.uber.org/zap"
)

const (
	emptyPollDelay = 100 * time.Millisecond
	errorDelay     = 1 * time.Second
	requestTimeout = 10 * time.Second
)

// Dispatcher runs the poll loop. It owns no persistent state beyond the
// source it polls and the HTTP client it relays through.
type Dispatcher struct {
	log    *zap.Logger
	source eventsource.Source
	client *http.Client

	updaterBaseURL string
}

// New builds a Dispatcher that relays events from source to the Updater at
// updaterBaseURL (e.g. "http://localhost:8001").
func New(source eventsource.Source, updaterBaseURL string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		log:            log.Named("dispatcher"),
		source:         source,
		client:         &http.Client{Timeout: requestTimeout},
		updaterBaseURL: updaterBaseURL,
	}
}

// Run polls until ctx is canceled. Each iteration: poll once, process at
// most one event, sleep per §4.5's policy, and check ctx at the loop
// boundary so shutdown is cooperative rather than preemptive.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("dispatcher starting", zap.String("updater_url", d.updaterBaseURL))

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopping")
			return
		default:
		}

		ev, err := d.source.Poll(ctx)
		if err != nil {
			d.log.Error("poll failed", zap.Error(err))
			sleep(ctx, errorDelay)
			continue
		}

		if ev == nil {
			sleep(ctx, emptyPollDelay)
			continue
		}

		if err := d.process(ctx, ev); err != nil {
			d.log.Error("event processing failed", zap.Error(err), zap.Int64("product_id", ev.ProductID), zap.String("op", string(ev.Op)))
		}
	}
}

// process maps ev.Op to an Updater endpoint and issues one POST. Non-2xx
// and transport failures are returned to the caller for logging; per
// §4.5 the event is then dropped, not retried or re-enqueued.
func (d *Dispatcher) process(ctx context.Context, ev *eventsource.Event) error {
	path, ok := endpointFor(ev.Op)
	if !ok {
		return fmt.Errorf("unrecognized event type: %q", ev.Op)
	}

	url := fmt.Sprintf("%s%s/%d", d.updaterBaseURL, path, ev.ProductID)

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected status %d", url, resp.StatusCode)
	}

	d.log.Info("event processed", zap.String("op", string(ev.Op)), zap.Int64("product_id", ev.ProductID))
	return nil
}

func endpointFor(op eventsource.Op) (string, bool) {
	switch op {
	case eventsource.OpAdd:
		return "/update/add", true
	case eventsource.OpModify:
		return "/update/modify", true
	case eventsource.OpDelete:
		return "/update/delete", true
	default:
		return "", false
	}
}

// sleep waits for d or until ctx is canceled, whichever comes first, so a
// shutdown signal during a sleep interval doesn't delay loop exit.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
