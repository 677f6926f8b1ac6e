package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nutrimind/internal/recipe"
)

// StorageKey is the fixed key favorites are persisted under, scoped per profile.
const StorageKey = "nutrimind_favorites_v1"

// ErrMissingID is returned when a recipe without an identifier is toggled.
var ErrMissingID = errors.New("recipe id is required")

// Backend is durable key-value storage for serialized favorites.
// Load returns nil data and a nil error when nothing is stored under key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// ErrUnavailable is returned when stored favorites could not be read, so a
// change cannot be applied without risking the data already stored.
var ErrUnavailable = errors.New("favorites storage unavailable")

// Store keeps one hydrated favorites set per profile and mirrors every change
// to the backend.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one profile's favorites. Its lock serializes hydration and toggles
// for that profile only.
type session struct {
	mu     sync.Mutex
	set    Set
	loaded bool
}

// NewStore creates a new Store.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend:  backend,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Key returns the storage key for a profile.
func Key(profile string) string {
	return StorageKey + ":" + profile
}

// Hydrate reads the persisted set for a profile. Absent or unreadable data
// yields an empty set; it never fails.
func (s *Store) Hydrate(ctx context.Context, profile string) Set {
	set, err := s.load(ctx, profile)
	if err != nil {
		s.logger.Warn("Failed to load favorites, showing none",
			zap.String("profile", profile), zap.Error(err))
		return NewSet()
	}
	return set
}

// load reads the persisted set. Backend failures are returned; absent or
// corrupted data is an empty set.
func (s *Store) load(ctx context.Context, profile string) (Set, error) {
	data, err := s.backend.Load(ctx, Key(profile))
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return NewSet(), nil
	}

	var recipes []recipe.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		s.logger.Warn("Corrupted favorites data, starting empty",
			zap.String("profile", profile), zap.Error(err))
		return NewSet(), nil
	}
	return NewSet(recipes...), nil
}

// Persist serializes the full set and writes it under the profile's key.
func (s *Store) Persist(ctx context.Context, profile string, set Set) error {
	data, err := json.Marshal(set.Recipes())
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := s.backend.Save(ctx, Key(profile), data); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

// Favorites returns the session set for a profile, hydrating it on first use.
// A failed read shows an empty set and is retried on the next call.
func (s *Store) Favorites(ctx context.Context, profile string) Set {
	sess := s.session(profile)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, profile, sess); err != nil {
		s.logger.Warn("Failed to load favorites, showing none",
			zap.String("profile", profile), zap.Error(err))
		return NewSet()
	}
	return sess.set
}

// Toggle flips membership of r for a profile and persists the result before
// returning it. The session is left unchanged when persisting fails, and
// nothing is written when the stored set could not be read.
func (s *Store) Toggle(ctx context.Context, profile string, r recipe.Recipe) (Set, bool, error) {
	if r.ID == "" {
		return Set{}, false, ErrMissingID
	}

	sess := s.session(profile)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, profile, sess); err != nil {
		return Set{}, false, err
	}

	next := sess.set.Toggle(r)
	if err := s.Persist(ctx, profile, next); err != nil {
		return Set{}, false, err
	}
	sess.set = next
	return next, next.Contains(r.ID), nil
}

// ensureLoaded hydrates sess once. It must be called with sess.mu held.
func (s *Store) ensureLoaded(ctx context.Context, profile string, sess *session) error {
	if sess.loaded {
		return nil
	}
	set, err := s.load(ctx, profile)
	if err != nil {
		return err
	}
	sess.set = set
	sess.loaded = true
	return nil
}

func (s *Store) session(profile string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[profile]
	if !ok {
		sess = &session{}
		s.sessions[profile] = sess
	}
	return sess
}
