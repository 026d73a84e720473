// Package threads owns the list of conversation threads and the currently
// active thread id, and persists both to durable storage. The store is
// constructor-injected wherever it is needed; there is no global instance.
package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mmchat/internal/logger"
	"mmchat/internal/storage"
	"mmchat/internal/testutils"
	"mmchat/pkg/chattypes"
)

// Storage keys, matching the browser-local-storage layout of the protocol.
const (
	threadsKey       = "threads"
	currentThreadKey = "currentThreadId"
)

// Store manages the thread list and active thread id. Every mutating call
// persists the session synchronously before returning: the persisted and
// in-memory session are consistent whenever a call has returned.
type Store struct {
	mu       sync.Mutex
	kv       storage.Store
	hydrator chattypes.Hydrator

	threads  []chattypes.Thread
	activeID string
	testMode bool
}

// NewStore creates a thread store backed by kv. hydrator, when non-nil, is
// signalled after a thread becomes active so the conversation cache can load
// its history; pass nil when no hydration is wanted (e.g. listing commands).
func NewStore(kv storage.Store, hydrator chattypes.Hydrator) *Store {
	return &Store{
		kv:       kv,
		hydrator: hydrator,
	}
}

// SetTestMode switches the store to deterministic id generation for tests.
func (s *Store) SetTestMode(testMode bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testMode = testMode
}

// Load hydrates the session from durable storage. Absent or unparsable
// state degrades to an empty session with a logged warning; Load never
// fails the application.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads = nil
	s.activeID = ""

	raw, err := s.kv.Get(threadsKey)
	if err == nil {
		var threads []chattypes.Thread
		if unmarshalErr := json.Unmarshal([]byte(raw), &threads); unmarshalErr != nil {
			logger.Warn("stored thread list unparsable, starting empty", "error", unmarshalErr)
		} else {
			s.threads = threads
		}
	} else if err != storage.ErrNotFound {
		logger.Warn("stored thread list unreadable, starting empty", "error", err)
	}

	active, err := s.kv.Get(currentThreadKey)
	if err == nil && s.hasThreadLocked(active) {
		s.activeID = active
	}

	logger.Debug("session loaded", "threads", len(s.threads), "active", s.activeID)
}

// CreateThread generates a new thread with a unique time-derived id and the
// next sequential title ("Thread N"), appends it, makes it active, and
// persists the session before returning.
func (s *Store) CreateThread() (chattypes.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread := chattypes.Thread{
		ID:    testutils.GenerateThreadID(s.testMode),
		Title: fmt.Sprintf("Thread %d", len(s.threads)+1),
	}

	prevThreads := s.threads
	prevActive := s.activeID
	s.threads = append(append([]chattypes.Thread(nil), s.threads...), thread)
	s.activeID = thread.ID

	if err := s.persistLocked(); err != nil {
		// Keep memory and disk consistent: the mutation did not happen.
		s.threads = prevThreads
		s.activeID = prevActive
		return chattypes.Thread{}, err
	}

	logger.Debug("thread created", "thread", thread.ID, "title", thread.Title)
	return thread, nil
}

// SelectThread makes the given thread active, persists the session, and
// signals the hydrator to load that thread's history. An unknown id is a
// silent no-op. A hydration failure is reported but the selection stands:
// the cache keeps whatever history it already had for the thread.
func (s *Store) SelectThread(ctx context.Context, id string) error {
	s.mu.Lock()

	if !s.hasThreadLocked(id) {
		s.mu.Unlock()
		logger.Warn("select of unknown thread ignored", "thread", id)
		return nil
	}

	prevActive := s.activeID
	s.activeID = id
	if err := s.persistLocked(); err != nil {
		s.activeID = prevActive
		s.mu.Unlock()
		return err
	}
	hydrator := s.hydrator
	s.mu.Unlock()

	if hydrator != nil {
		if err := hydrator.Hydrate(ctx, id); err != nil {
			return fmt.Errorf("thread selected but history not loaded: %w", err)
		}
	}
	return nil
}

// List returns the threads in creation order.
func (s *Store) List() []chattypes.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chattypes.Thread(nil), s.threads...)
}

// ActiveID returns the active thread id, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Session returns a snapshot of the whole session state.
func (s *Store) Session() chattypes.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chattypes.Session{
		Threads:        append([]chattypes.Thread(nil), s.threads...),
		ActiveThreadID: s.activeID,
	}
}

func (s *Store) hasThreadLocked(id string) bool {
	for _, thread := range s.threads {
		if thread.ID == id {
			return true
		}
	}
	return false
}

// persistLocked writes both session keys. The thread list goes first so a
// failure between the two writes can never persist an active id that points
// at an unknown thread.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.threads)
	if err != nil {
		return fmt.Errorf("failed to encode thread list: %w", err)
	}
	if err := s.kv.Set(threadsKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist thread list: %w", err)
	}
	if err := s.kv.Set(currentThreadKey, s.activeID); err != nil {
		return fmt.Errorf("failed to persist active thread: %w", err)
	}
	return nil
}
