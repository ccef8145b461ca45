// Package updater implements the Updater service (§4.3): the single
// mutation surface that drives indexcore, persists a snapshot, and
// fire-and-forgets a reload notification to the Search service.
//
// DESIGN CONTRACT
//
// Runtime model
//   - Single process, many concurrent inbound requests.
//   - All mutations are serialized behind one mutex covering indexcore —
//     there is no per-product locking, unlike the teacher's per-channel
//     locks, because a Modify/Delete rebuild touches every slot, not just
//     the mutated product's.
//
// Failure policy
//   - Any failure before the in-memory maps change leaves Core untouched.
//   - A failure in snapshot.Save after the maps have changed triggers a
//     rollback: Core reloads from the previous snapshot pair. If that
//     reload also fails, the process logs the divergence and exits
//     non-zero rather than keep serving (and persisting against) a Core
//     that no longer matches any snapshot on disk.
//   - Notify failures are logged, never surfaced to the caller.
package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/indexcore"
	"github.com/fireclub/vsearch/internal/snapshot"
	"go.uber.org/zap"
)

// Notifier pushes a reload hint to the Search service. Implemented by
// internal/updater's httpNotifier in production and swappable in tests.
type Notifier interface {
	Notify(ctx context.Context, action string, productID int64, timestamp string) error
}

// Service is the Updater's process-wide service object, constructed once in
// main and threaded through the HTTP handlers.
type Service struct {
	log      *zap.Logger
	store    *snapshot.Store
	notifier Notifier
	now      func() time.Time

	mu   sync.Mutex
	core *indexcore.Core
}

// New builds a Service. It loads the current snapshot (if any) into core
// before returning, so a restarted Updater resumes from the last
// successfully saved generation.
func New(core *indexcore.Core, store *snapshot.Store, notifier Notifier, log *zap.Logger) (*Service, error) {
	log = log.Named("updater")

	s := &Service{
		log:      log,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		core:     core,
	}

	if st, err := store.Load(); err == nil {
		core.LoadState(st)
		log.Info("index loaded", zap.Int("products", st.NextSlot), zap.String("timestamp", st.Timestamp))
	} else if apperr.Is(err, apperr.Unavailable) {
		log.Info("no existing snapshot, starting empty")
	} else {
		log.Warn("failed to load existing snapshot, starting empty", zap.Error(err))
	}

	return s, nil
}

// Stats returns the current in-memory stats (§6 Updater /stats).
func (s *Service) Stats() indexcore.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Stats()
}

// Add implements the add mutation endpoint.
func (s *Service) Add(ctx context.Context, id int64) error {
	return s.mutate(ctx, "add", id, s.core.Add)
}

// Modify implements the modify mutation endpoint.
func (s *Service) Modify(ctx context.Context, id int64) error {
	return s.mutate(ctx, "modify", id, s.core.Modify)
}

// Delete implements the delete mutation endpoint.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.mutate(ctx, "delete", id, s.core.Delete)
}

// mutate serializes op against s.core, persists on success, and fires a
// best-effort notify. This is the single place §4.3's four steps happen.
func (s *Service) mutate(ctx context.Context, action string, id int64, op func(context.Context, int64) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(ctx, id); err != nil {
		return err
	}

	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.store.Save(s.core.State(timestamp)); err != nil {
		s.log.Error("snapshot save failed, rolling back in-memory state", zap.Error(err), zap.String("action", action), zap.Int64("product_id", id))
		s.rollback()
		return apperr.New(apperr.Internal, "updater.mutate", fmt.Errorf("save snapshot: %w", err))
	}

	notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, action, id, timestamp); err != nil {
		s.log.Warn("failed to notify search service", zap.Error(err), zap.String("action", action), zap.Int64("product_id", id))
	}

	return nil
}

// rollback reloads Core from the previous snapshot pair after a failed
// save (§4.3). If that reload itself fails, this process can no longer
// guarantee Core matches anything on disk, so it exits non-zero; a
// supervisor is expected to restart it, at which point New resynchronizes
// from whatever snapshot pair still exists.
func (s *Service) rollback() {
	st, err := s.store.LoadPrevious()
	if err != nil {
		s.log.Error("rollback failed: previous snapshot unreadable, exiting", zap.Error(err))
		os.Exit(1)
	}
	s.core.LoadState(st)
}

// httpNotifier is the production Notifier: a short-timeout POST to the
// Search service's /reload_index.
type httpNotifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotifier builds a Notifier that POSTs to baseURL + "/reload_index".
func NewHTTPNotifier(baseURL string) Notifier {
	return &httpNotifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *httpNotifier) Notify(ctx context.Context, action string, productID int64, timestamp string) error {
	body, err := json.Marshal(struct {
		Action    string `json:"action"`
		ProductID int64  `json:"product_id"`
		Timestamp string `json:"timestamp"`
	}{action, productID, timestamp})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/reload_index", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: unexpected status %d", resp.StatusCode)
	}
	return nil
}
