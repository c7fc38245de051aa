package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DayLayout is the wire and storage format of a calendar date.
const DayLayout = "2006-01-02"

// Plant is the single tracked entity.
type Plant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     *string   `json:"species"`
	LastWatered *string   `json:"last_watered"`
	CreatedAt   time.Time `json:"created_at"`
}

// SpeciesOrEmpty returns the species, or "" when absent.
func (p Plant) SpeciesOrEmpty() string {
	if p.Species == nil {
		return ""
	}
	return *p.Species
}

// PlantRepository is the port for plant persistence. Mutations that match
// no row report that with a nil plant (or false) and a nil error.
type PlantRepository interface {
	ListPlants(ctx context.Context) ([]Plant, error)
	CreatePlant(ctx context.Context, id, name string, species *string, createdAt time.Time) (*Plant, error)
	UpdatePlant(ctx context.Context, id, name string, species *string) (*Plant, error)
	WaterPlant(ctx context.Context, id string, day time.Time) (*Plant, error)
	DeletePlant(ctx context.Context, id string) (bool, error)
}

// ErrNotFound reports a mutation that matched no plant.
var ErrNotFound = errors.New("plant not found")

// ValidationError reports client-supplied data that fails a precondition.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

// NormalizeName trims surrounding whitespace and rejects an empty result.
func NormalizeName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", &ValidationError{Field: "name", Msg: "Name is required"}
	}
	return s, nil
}

// OptionalText maps "" to absent.
func OptionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
