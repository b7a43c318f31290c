package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore implements Store with process-local maps. Used in tests and
// as a fallback when no database path is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]*CarProfile
	conversations map[string][]Conversation
	nextID        int64

	// FailReads forces read methods to return an error; tests use it to
	// exercise the best-effort persistence paths.
	FailReads error
	// FailWrites forces write methods to return an error.
	FailWrites error
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-process store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:      make(map[string]*CarProfile),
		conversations: make(map[string][]Conversation),
	}
}

func (s *InMemoryStore) GetOrCreate(ctx context.Context, userID string) (*CarProfile, error) {
	if s.FailReads != nil {
		return nil, s.FailReads
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if profile, ok := s.profiles[userID]; ok {
		clone := *profile
		return &clone, nil
	}
	profile := &CarProfile{UserID: userID}
	s.profiles[userID] = profile
	clone := *profile
	return &clone, nil
}

// SeedProfile installs a profile directly, bypassing failure injection.
func (s *InMemoryStore) SeedProfile(profile CarProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = &profile
}

func (s *InMemoryStore) ApplyUpdates(ctx context.Context, userID string, updates ProfileUpdates) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	if updates.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = &CarProfile{UserID: userID}
		s.profiles[userID] = profile
	}
	if updates.Make != nil {
		profile.Make = *updates.Make
	}
	if updates.Model != nil {
		profile.Model = *updates.Model
	}
	if updates.Year != nil {
		profile.Year = *updates.Year
	}
	if updates.ResalePref != nil {
		profile.ResalePref = *updates.ResalePref
	}
	return nil
}

func (s *InMemoryStore) Append(ctx context.Context, conv Conversation) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	conv.ID = s.nextID
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	s.conversations[conv.UserID] = append(s.conversations[conv.UserID], conv)
	return nil
}

func (s *InMemoryStore) Recent(ctx context.Context, userID string, limit int) ([]Conversation, error) {
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	if limit <= 0 {
		limit = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := append([]Conversation(nil), s.conversations[userID]...)
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) Session(ctx context.Context, userID, sessionID string) ([]Conversation, error) {
	if s.FailReads != nil {
		return nil, s.FailReads
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Conversation
	for _, conv := range s.conversations[userID] {
		if conv.SessionID == sessionID {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Prune(ctx context.Context, userID string, policy RetentionPolicy) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	if !policy.HasRules() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.conversations[userID]
	if cutoff, ok := policy.Cutoff(time.Now().UTC()); ok {
		filtered := kept[:0]
		for _, conv := range kept {
			if !conv.CreatedAt.Before(cutoff) {
				filtered = append(filtered, conv)
			}
		}
		kept = filtered
	}

	if policy.MaxPerUser > 0 && len(kept) > policy.MaxPerUser {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].CreatedAt.Equal(kept[j].CreatedAt) {
				return kept[i].ID < kept[j].ID
			}
			return kept[i].CreatedAt.Before(kept[j].CreatedAt)
		})
		kept = kept[len(kept)-policy.MaxPerUser:]
	}

	s.conversations[userID] = kept
	return nil
}

// Count returns how many conversations are stored for the user.
func (s *InMemoryStore) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[userID])
}
