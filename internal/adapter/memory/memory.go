// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"plantcare/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	plants   []domain.Plant
	sessions map[string]*domain.Session
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.PlantRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)

// --- PlantRepository ---

// ListPlants returns a copy of every plant, newest first.
func (db *DB) ListPlants(ctx context.Context) ([]domain.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Plant, len(db.plants))
	for i, p := range db.plants {
		result[i] = clonePlant(p)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CreatePlant adds a plant.
func (db *DB) CreatePlant(ctx context.Context, id, name string, species *string, createdAt time.Time) (*domain.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p := domain.Plant{
		ID:        id,
		Name:      name,
		Species:   cloneText(species),
		CreatedAt: createdAt.UTC(),
	}
	db.plants = append(db.plants, p)
	out := clonePlant(p)
	return &out, nil
}

// UpdatePlant overwrites name and species of the plant with the given id.
func (db *DB) UpdatePlant(ctx context.Context, id, name string, species *string) (*domain.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	db.plants[i].Name = name
	db.plants[i].Species = cloneText(species)
	out := clonePlant(db.plants[i])
	return &out, nil
}

// WaterPlant sets last_watered to the calendar day of day.
func (db *DB) WaterPlant(ctx context.Context, id string, day time.Time) (*domain.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	d := day.Format(domain.DayLayout)
	db.plants[i].LastWatered = &d
	out := clonePlant(db.plants[i])
	return &out, nil
}

// DeletePlant removes a plant by ID.
func (db *DB) DeletePlant(ctx context.Context, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.indexOf(id)
	if i < 0 {
		return false, nil
	}
	db.plants = append(db.plants[:i], db.plants[i+1:]...)
	return true, nil
}

func (db *DB) indexOf(id string) int {
	for i := range db.plants {
		if db.plants[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePlant(p domain.Plant) domain.Plant {
	p.Species = cloneText(p.Species)
	p.LastWatered = cloneText(p.LastWatered)
	return p
}

func cloneText(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// --- SessionRepository ---

// CreateSession creates a new session.
func (db *DB) CreateSession(ctx context.Context, token, subject string, expiresAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.sessions[token] = &domain.Session{
		Token:     token,
		Subject:   subject,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetSession retrieves a session by token.
func (db *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if s, ok := db.sessions[token]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

// DeleteSession deletes a session.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.sessions, token)
	return nil
}

// DeleteExpiredSessions deletes all expired sessions.
func (db *DB) DeleteExpiredSessions(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	for k, v := range db.sessions {
		if now.After(v.ExpiresAt) {
			delete(db.sessions, k)
		}
	}
	return nil
}
