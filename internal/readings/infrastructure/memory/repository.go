package memory

import (
	"context"
	"sort"
	"sync"

	readings "bptracker/internal/readings/domain"
)

// ReadingRepository is an in-memory reading store for demo/testing.
type ReadingRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]readings.Reading
}

// NewReadingRepository constructs a repository.
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{data: make(map[int64]readings.Reading)}
}

// Insert stores a reading and assigns its id.
func (r *ReadingRepository) Insert(ctx context.Context, reading readings.Reading) (readings.Reading, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reading.ID = r.nextID
	r.data[reading.ID] = reading
	return reading, nil
}

// ListOrdered returns all readings ascending by measured time.
func (r *ReadingRepository) ListOrdered(ctx context.Context) ([]readings.Reading, error) {
	_ = ctx
	r.mu.RLock()
	result := make([]readings.Reading, 0, len(r.data))
	for _, reading := range r.data {
		result = append(result, reading)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].MeasuredAt.Equal(result[j].MeasuredAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].MeasuredAt.Before(result[j].MeasuredAt)
	})
	return result, nil
}

// Get loads a reading by id.
func (r *ReadingRepository) Get(ctx context.Context, id int64) (readings.Reading, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	reading, ok := r.data[id]
	if !ok {
		return readings.Reading{}, readings.ErrReadingNotFound
	}
	return reading, nil
}

// Delete removes a reading by id.
func (r *ReadingRepository) Delete(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return readings.ErrReadingNotFound
	}
	delete(r.data, id)
	return nil
}

// Count returns the number of stored readings.
func (r *ReadingRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
