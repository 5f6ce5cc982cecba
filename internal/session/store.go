// Package session tracks per-(user, problem) progress: the last outcome,
// the run-length of consecutive identical failures, and the manually saved
// draft. State is flushed to a pretty-printed JSON file on every mutation.
package session

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"sync"

	"labta/internal/logging"
	"labta/internal/types"
)

// Progression messages surfaced to the student after an outcome is
// recorded.
const (
	msgGreatJob = "**Great Job!** You passed all tests."
)

// State is one session record. LastError is nil until the first submission.
// DraftCode is written only by SaveDraft, never by RecordOutcome.
type State struct {
	LastError *types.Status `json:"last_error"`
	Attempt   int           `json:"attempt"`
	DraftCode *string       `json:"draft_code,omitempty"`
}

const stripeCount = 32

// Store is the durable session map. Mutations are serialized per session
// key through striped mutexes; the disk flush happens inside the critical
// section so observers never read a state that was not persisted.
type Store struct {
	path    string
	stripes [stripeCount]sync.Mutex

	mu       sync.RWMutex
	sessions map[string]State
}

// Key derives the session key for a user and problem.
func Key(userID, problemID string) string {
	return userID + "_" + problemID
}

// Load reads the session file. A missing or corrupt file starts the store
// fresh with a warning rather than failing startup.
func Load(path string) (*Store, error) {
	s := &Store{path: path, sessions: map[string]State{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Session("no session file at %s, starting fresh", path)
			return s, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	if err := json.Unmarshal(data, &s.sessions); err != nil {
		logging.SessionError("session file %s corrupt, starting fresh: %v", path, err)
		s.sessions = map[string]State{}
		return s, nil
	}

	logging.Session("loaded %d existing sessions", len(s.sessions))
	return s, nil
}

func (s *Store) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.stripes[h.Sum32()%stripeCount]
}

// Get returns the current state for a session, or a zero state when none
// exists.
func (s *Store) Get(userID, problemID string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[Key(userID, problemID)]
	return state, ok
}

// SaveDraft persists the student's editor buffer without running it. The
// session is created lazily when absent.
func (s *Store) SaveDraft(userID, problemID, code string) error {
	key := Key(userID, problemID)
	lock := s.stripe(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	state := s.sessions[key]
	state.DraftCode = &code
	s.sessions[key] = state
	err := s.flushLocked()
	s.mu.Unlock()
	return err
}

// RecordOutcome applies the attempt arithmetic for a new submission
// outcome and returns the updated state plus the progression message.
// Success resets the counter; a repeat of the previous error increments
// it; any other failure resets it to 1. The draft is left untouched.
func (s *Store) RecordOutcome(userID, problemID string, status types.Status) (State, string, error) {
	key := Key(userID, problemID)
	lock := s.stripe(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	state := s.sessions[key]

	var message string
	switch {
	case status.IsSuccess():
		state.Attempt = 0
		message = msgGreatJob
	case state.LastError != nil && *state.LastError == status:
		state.Attempt++
		message = fmt.Sprintf("**Issue Persists:** Attempt #%d at fixing %s.", state.Attempt, status)
	default:
		state.Attempt = 1
		message = fmt.Sprintf("**New Challenge:** Encountered a %s.", status)
	}

	final := status
	state.LastError = &final
	s.sessions[key] = state
	err := s.flushLocked()
	s.mu.Unlock()

	return state, message, err
}

// Snapshot returns a copy of every session for read-only inspection.
func (s *Store) Snapshot() map[string]State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]State, len(s.sessions))
	for key, state := range s.sessions {
		out[key] = state
	}
	return out
}

// Flush rewrites the session file. Used on graceful shutdown; per-mutation
// flushes happen inside the mutating calls.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked rewrites the whole file, pretty-printed. Caller holds mu.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.sessions, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
