// Package memory is an in-process job.Store for tests and single-node demos.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-inspector/internal/job"
)

var _ job.Store = (*Store)(nil)

// Store keeps jobs and counters in maps guarded by one mutex. Every record
// crossing the boundary is copied.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]*job.Job
	counters map[string]int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		jobs:     make(map[string]*job.Job),
		counters: make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Get(_ context.Context, id string) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	return j.Clone(), nil
}

func (s *Store) Find(_ context.Context, q job.Query) ([]*job.Job, int64, error) {
	s.mu.RLock()
	matched := make([]*job.Job, 0)
	for _, j := range s.jobs {
		if q.Matches(j) {
			matched = append(matched, j.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		if matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].JobCount > matched[b].JobCount
		}
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := int64(len(matched))
	if q.Skip >= len(matched) {
		return []*job.Job{}, total, nil
	}
	matched = matched[q.Skip:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (s *Store) Insert(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j.Clone()
	return nil
}

func (s *Store) ConditionalUpdate(_ context.Context, id string, e job.Expect, u job.Update) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || !e.Matches(j) {
		return nil, nil
	}
	u.Apply(j, s.now())
	return j.Clone(), nil
}

func (s *Store) Increment(_ context.Context, counter string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter]++
	return s.counters[counter], nil
}

func (s *Store) Delete(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	delete(s.jobs, id)
	return j, nil
}
