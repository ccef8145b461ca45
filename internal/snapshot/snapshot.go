// Package snapshot implements the two-file atomic swap protocol (§4.1): the
// Updater is the sole writer, the Search service is the sole reader, and
// correctness relies on whole-file atomic renames plus a reader-side
// cardinality check rather than any filesystem locking.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fireclub/vsearch/internal/apperr"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/internal/vectorindex"
	"github.com/natefinch/atomic"
)

const (
	catalogFile = "catalog.snap"
	vectorsFile = "vectors.idx"
	oldSuffix   = ".old"
	tornRetryDelay = 50 * time.Millisecond
)

// catalogPayload is the JSON shape of catalog.snap: the auxiliary tables
// plus a timestamp. Field names are the wire contract between Updater and
// Search builds, so they're fixed independent of the Go field names.
type catalogPayload struct {
	Products  map[int64]*product.Product `json:"products"`
	Corpus    map[int64]string           `json:"corpus"`
	IDToSlot  map[int64]int              `json:"id_to_slot"`
	SlotToID  map[int]int64              `json:"slot_to_id"`
	NextSlot  int                        `json:"next_slot"`
	Timestamp string                     `json:"timestamp"`
}

// State is the full tuple the codec loads and saves: the four maps, the
// vector index, and the generation timestamp.
type State struct {
	Products  map[int64]*product.Product
	Corpus    map[int64]string
	IDToSlot  map[int64]int
	SlotToID  map[int]int64
	NextSlot  int
	VecIndex  *vectorindex.Index
	Timestamp string
}

// Store is a handle on the shared directory containing the snapshot pair.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. dir must exist and be writable by
// the Updater and readable by the Search service.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// ErrNotFound is returned by Load when no snapshot pair exists yet (first
// boot, before the Updater has ever saved).
var ErrNotFound = errors.New("snapshot: not found")

// Save writes both files of st under temporary names, retains the previous
// pair under a *.old suffix, then atomically replaces the current pair.
// This follows the three-step save protocol (§4.1): write catalog.snap.tmp
// and vectors.idx.tmp in full, rename the current pair to *.old, then move
// each temporary into place with atomic.ReplaceFile.
func (s *Store) Save(st *State) error {
	catalogBytes, err := encodeCatalog(st)
	if err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("encode catalog: %w", err))
	}

	var vecBuf bytes.Buffer
	if err := vectorindex.Encode(&vecBuf, st.VecIndex); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("encode vectors: %w", err))
	}

	catalogTmp, vectorsTmp := s.path(catalogFile+".tmp"), s.path(vectorsFile+".tmp")
	if err := os.WriteFile(catalogTmp, catalogBytes, 0o644); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("write catalog tmp: %w", err))
	}
	if err := os.WriteFile(vectorsTmp, vecBuf.Bytes(), 0o644); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("write vectors tmp: %w", err))
	}

	if err := retireCurrent(s.path(catalogFile)); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("retire catalog: %w", err))
	}
	if err := retireCurrent(s.path(vectorsFile)); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("retire vectors: %w", err))
	}

	if err := atomic.ReplaceFile(catalogTmp, s.path(catalogFile)); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("replace catalog: %w", err))
	}
	if err := atomic.ReplaceFile(vectorsTmp, s.path(vectorsFile)); err != nil {
		return apperr.New(apperr.Internal, "snapshot.Save", fmt.Errorf("replace vectors: %w", err))
	}

	return nil
}

// retireCurrent renames path to path+".old" if path exists. A missing
// current file (first save) is not an error.
func retireCurrent(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Rename(path, path+oldSuffix)
}

// Load reads the current snapshot pair and validates the cross-map
// cardinality invariant (§4.1). On a torn pair it retries once after a
// short delay; if still torn, it returns a Conflict error without mutating
// anything the caller can observe.
func (s *Store) Load() (*State, error) {
	st, err := s.loadOnce(catalogFile, vectorsFile)
	if err == nil {
		return st, nil
	}
	if !apperr.Is(err, apperr.Conflict) {
		return nil, err
	}

	time.Sleep(tornRetryDelay)
	return s.loadOnce(catalogFile, vectorsFile)
}

// LoadPrevious reads the *.old pair retained from the prior generation, used
// by the Updater to roll back in-memory state after a failed Save (§4.3).
func (s *Store) LoadPrevious() (*State, error) {
	st, err := s.loadOnce(catalogFile+oldSuffix, vectorsFile+oldSuffix)
	if err == nil {
		return st, nil
	}
	if apperr.Is(err, apperr.Unavailable) {
		// No _old pair (e.g. this was the first save ever); fall back to
		// the current pair, which — since Save failed before ever
		// replacing it — is still the last good state.
		return s.loadOnce(catalogFile, vectorsFile)
	}
	return nil, err
}

func (s *Store) loadOnce(catalogName, vectorsName string) (*State, error) {
	catalogBytes, err := os.ReadFile(s.path(catalogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.Unavailable, "snapshot.Load", ErrNotFound)
		}
		return nil, apperr.New(apperr.Internal, "snapshot.Load", err)
	}

	vecFile, err := os.Open(s.path(vectorsName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.Unavailable, "snapshot.Load", ErrNotFound)
		}
		return nil, apperr.New(apperr.Internal, "snapshot.Load", err)
	}
	defer vecFile.Close()

	var payload catalogPayload
	if err := json.Unmarshal(catalogBytes, &payload); err != nil {
		return nil, apperr.New(apperr.Conflict, "snapshot.Load", fmt.Errorf("decode catalog: %w", err))
	}

	vecIndex, err := vectorindex.Decode(vecFile)
	if err != nil {
		return nil, apperr.New(apperr.Conflict, "snapshot.Load", fmt.Errorf("decode vectors: %w", err))
	}

	if len(payload.Products) != len(payload.Corpus) ||
		len(payload.Products) != len(payload.IDToSlot) ||
		len(payload.Products) != len(payload.SlotToID) ||
		len(payload.Products) != vecIndex.Count() {
		return nil, apperr.New(apperr.Conflict, "snapshot.Load",
			fmt.Errorf("cardinality mismatch: products=%d corpus=%d id_to_slot=%d slot_to_id=%d vectors=%d",
				len(payload.Products), len(payload.Corpus), len(payload.IDToSlot), len(payload.SlotToID), vecIndex.Count()))
	}

	return &State{
		Products:  payload.Products,
		Corpus:    payload.Corpus,
		IDToSlot:  payload.IDToSlot,
		SlotToID:  payload.SlotToID,
		NextSlot:  payload.NextSlot,
		VecIndex:  vecIndex,
		Timestamp: payload.Timestamp,
	}, nil
}

func encodeCatalog(st *State) ([]byte, error) {
	payload := catalogPayload{
		Products:  st.Products,
		Corpus:    st.Corpus,
		IDToSlot:  st.IDToSlot,
		SlotToID:  st.SlotToID,
		NextSlot:  st.NextSlot,
		Timestamp: st.Timestamp,
	}
	return json.Marshal(payload)
}
