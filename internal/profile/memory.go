package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agenthands/blockvoice/internal/core/challenge"
)

type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	progress map[string]map[string]challenge.Progress
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		progress: make(map[string]map[string]challenge.Progress),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Put(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.now().UTC()
	s.profiles[p.UserID] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	delete(s.progress, userID)
	return nil
}

func (s *MemoryStore) Progress(_ context.Context, userID string) ([]challenge.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]challenge.Progress, 0, len(s.progress[userID]))
	for _, p := range s.progress[userID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, p challenge.Progress) (challenge.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byChallenge, ok := s.progress[p.UserID]
	if !ok {
		byChallenge = make(map[string]challenge.Progress)
		s.progress[p.UserID] = byChallenge
	}
	if prev, ok := byChallenge[p.ChallengeID]; ok {
		p = challenge.Merge(prev, p)
	}
	byChallenge[p.ChallengeID] = p
	return p, nil
}
