package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"plantcare/internal/domain"
)

// ServiceError wraps an unexpected persistence failure of operation Op.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// PlantService encapsulates the plant-care use cases.
//
// In strict mode Update applies the same name rule as Create, and
// mutations that match no plant fail with domain.ErrNotFound. Otherwise a
// missing id is acknowledged with a nil plant and a nil error.
type PlantService struct {
	repo   domain.PlantRepository
	strict bool
	now    func() time.Time
	newID  func() string
}

// NewPlantService creates a PlantService backed by the given repository.
func NewPlantService(repo domain.PlantRepository, strict bool) *PlantService {
	return &PlantService{repo: repo, strict: strict, now: time.Now, newID: uuid.NewString}
}

// WithClock replaces the clock used for created_at and watering dates.
func (s *PlantService) WithClock(now func() time.Time) *PlantService {
	s.now = now
	return s
}

// Strict reports whether strict mode is on.
func (s *PlantService) Strict() bool {
	return s.strict
}

// List returns all plants, newest first.
func (s *PlantService) List(ctx context.Context) ([]domain.Plant, error) {
	plants, err := s.repo.ListPlants(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "list plants", Err: err}
	}
	return plants, nil
}

// Create validates and stores a new plant. An empty species is stored as
// absent.
func (s *PlantService) Create(ctx context.Context, name, species string) (*domain.Plant, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.CreatePlant(ctx, s.newID(), name, domain.OptionalText(species), s.now())
	if err != nil {
		return nil, &ServiceError{Op: "create plant", Err: err}
	}
	return p, nil
}

// Update overwrites name and species of the plant with the given id.
func (s *PlantService) Update(ctx context.Context, id, name, species string) (*domain.Plant, error) {
	if s.strict {
		n, err := domain.NormalizeName(name)
		if err != nil {
			return nil, err
		}
		name = n
	}
	key, ok := parseID(id)
	if !ok {
		return s.miss()
	}
	p, err := s.repo.UpdatePlant(ctx, key, name, domain.OptionalText(species))
	if err != nil {
		return nil, &ServiceError{Op: "update plant", Err: err}
	}
	if p == nil {
		return s.miss()
	}
	return p, nil
}

// Water sets last_watered to today's date on the service clock.
func (s *PlantService) Water(ctx context.Context, id string) (*domain.Plant, error) {
	key, ok := parseID(id)
	if !ok {
		return s.miss()
	}
	today := s.now().In(time.Local)
	p, err := s.repo.WaterPlant(ctx, key, today)
	if err != nil {
		return nil, &ServiceError{Op: "water plant", Err: err}
	}
	if p == nil {
		return s.miss()
	}
	return p, nil
}

// Delete removes the plant with the given id.
func (s *PlantService) Delete(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		_, err := s.miss()
		return err
	}
	deleted, err := s.repo.DeletePlant(ctx, key)
	if err != nil {
		return &ServiceError{Op: "delete plant", Err: err}
	}
	if !deleted {
		_, err := s.miss()
		return err
	}
	return nil
}

func (s *PlantService) miss() (*domain.Plant, error) {
	if s.strict {
		return nil, domain.ErrNotFound
	}
	return nil, nil
}

// parseID canonicalizes a plant id. A string that is not a UUID can never
// name a stored plant.
func parseID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
