package application

import (
	"context"
	"fmt"
	"time"

	"bptracker/internal/observability/metrics"
	readings "bptracker/internal/readings/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AddInput carries the values of an add-reading form.
type AddInput struct {
	Systolic   int
	Diastolic  int
	MeasuredAt time.Time
}

// Service handles reading CRUD and snapshots for reporting.
type Service struct {
	repo  readings.Repository
	clock Clock
}

// Option customizes the service.
type Option func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a reading service.
func NewService(repo readings.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, readings.ErrNilRepository
	}
	s := &Service{repo: repo, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Add validates and stores a reading. Invalid input writes nothing.
func (s *Service) Add(ctx context.Context, in AddInput) (readings.Reading, error) {
	reading, err := readings.NewReading(in.Systolic, in.Diastolic, in.MeasuredAt)
	if err != nil {
		metrics.IncReadingMutation("insert", metrics.ResultError)
		return readings.Reading{}, err
	}
	stored, err := s.repo.Insert(ctx, reading)
	if err != nil {
		metrics.IncReadingMutation("insert", metrics.ResultError)
		return readings.Reading{}, fmt.Errorf("readings: insert: %w", err)
	}
	metrics.IncReadingMutation("insert", metrics.ResultSuccess)
	return stored, nil
}

// List returns readings ascending by measured time.
func (s *Service) List(ctx context.Context) ([]readings.Reading, error) {
	list, err := s.repo.ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("readings: list: %w", err)
	}
	return list, nil
}

// Snapshot materialises the current readings for one report.
func (s *Service) Snapshot(ctx context.Context) (readings.Snapshot, error) {
	list, err := s.List(ctx)
	if err != nil {
		return readings.Snapshot{}, err
	}
	return readings.NewSnapshot(list, s.clock.Now()), nil
}

// Get loads one reading.
func (s *Service) Get(ctx context.Context, id int64) (readings.Reading, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes one reading; ErrReadingNotFound leaves the store unchanged.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.IncReadingMutation("delete", metrics.ResultError)
		return err
	}
	metrics.IncReadingMutation("delete", metrics.ResultSuccess)
	return nil
}
