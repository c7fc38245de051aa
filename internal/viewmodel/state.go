// Package viewmodel holds the client-side plant list state, the derived
// filtered and sorted view, and the mutation protocol against the API.
package viewmodel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"plantcare/internal/domain"
)

// SortOrder orders the view by last_watered.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc".
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(s)); o {
	case SortAsc, SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// EditBuffer is the transient copy of the fields being edited.
type EditBuffer struct {
	Name    string
	Species string
}

// State is everything the page renders from.
type State struct {
	Plants    []domain.Plant
	Search    string
	SortOrder SortOrder
	EditID    *string
	Edit      EditBuffer
}

// NewState returns the initial state: empty list, newest watering first.
func NewState() State {
	return State{SortOrder: SortDesc}
}

// Editing reports whether id is the current edit target.
func (s State) Editing(id string) bool {
	return s.EditID != nil && *s.EditID == id
}

// View derives the rendered list from the state.
func (s State) View() []domain.Plant {
	return Derive(s.Plants, s.Search, s.SortOrder)
}

// Derive returns the plants whose name or species contains search
// (case-insensitive), sorted by last_watered in order. Plants never
// watered are placed after all watered plants in either order. The input
// is not modified.
func Derive(plants []domain.Plant, search string, order SortOrder) []domain.Plant {
	term := strings.ToLower(search)
	out := make([]domain.Plant, 0, len(plants))
	for _, p := range plants {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.SpeciesOrEmpty()), term) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, okA := wateredDay(out[i])
		b, okB := wateredDay(out[j])
		switch {
		case !okA:
			return false
		case !okB:
			return true
		case order == SortAsc:
			return a.Before(b)
		default:
			return a.After(b)
		}
	})
	return out
}

// wateredDay parses last_watered. An unparseable value counts as absent.
func wateredDay(p domain.Plant) (time.Time, bool) {
	if p.LastWatered == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(domain.DayLayout, *p.LastWatered)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
