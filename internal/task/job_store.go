package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/synthgen/internal/domain"
)

// JobStore keeps dataset jobs in memory. Jobs are lost on restart; a
// client that needs a result again resubmits the request.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]domain.Dataset
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: map[uuid.UUID]domain.Dataset{},
	}
}

// Put saves or replaces a job. The store keeps its own copy, so later
// mutations of the argument do not leak into lookups.
func (s *JobStore) Put(d *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[d.ID] = *d
}

// Get returns a copy of the job with the given ID, or
// domain.ErrDatasetNotFound.
func (s *JobStore) Get(id uuid.UUID) (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.jobs[id]
	if !ok {
		return domain.Dataset{}, domain.ErrDatasetNotFound
	}
	return d, nil
}

// Record updates a job's result fields (accepted, rejected, destination)
// without touching its status, which the runner manages. Unknown IDs are
// inserted as-is.
func (s *JobStore) Record(d *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.jobs[d.ID]
	if !ok {
		s.jobs[d.ID] = *d
		return
	}

	cur.Accepted = d.Accepted
	cur.Rejected = d.Rejected
	cur.Destination = d.Destination
	cur.UpdatedAt = time.Now().UTC()
	s.jobs[d.ID] = cur
}

// SetStatus updates a job's status and error message. Unknown IDs return
// domain.ErrDatasetNotFound.
func (s *JobStore) SetStatus(id uuid.UUID, status domain.DatasetStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.jobs[id]
	if !ok {
		return domain.ErrDatasetNotFound
	}

	d.Status = status
	d.Error = message
	d.UpdatedAt = time.Now().UTC()
	s.jobs[id] = d
	return nil
}
