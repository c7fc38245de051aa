package viewmodel

import (
	"context"
	"errors"
	"slices"
	"sync"

	"plantcare/internal/domain"
)

var (
	// ErrClosed is returned by calls on a closed Model and by calls whose
	// result arrived after Close.
	ErrClosed = errors.New("viewmodel: closed")
	// ErrNotEditing is returned by SaveEdit outside edit mode.
	ErrNotEditing = errors.New("viewmodel: no plant is being edited")
	// ErrUnknownPlant is returned by BeginEdit for an id not in the list.
	ErrUnknownPlant = errors.New("viewmodel: plant not in list")
)

// API is the subset of the plant API the Model drives. *Client implements it.
type API interface {
	List(ctx context.Context) ([]domain.Plant, error)
	Create(ctx context.Context, name, species string) (*domain.Plant, error)
	Update(ctx context.Context, id, name, species string) (*domain.Plant, error)
	Water(ctx context.Context, id string) (*domain.Plant, error)
	Delete(ctx context.Context, id string) error
}

// Model owns the client State and applies the mutation protocol: issue the
// request, reconcile with the returned record, reload when none came back.
// A failed call leaves the state unchanged.
type Model struct {
	api API

	mu    sync.Mutex
	state State

	life   context.Context
	cancel context.CancelFunc
}

// New returns a Model in the initial state. Call Load to populate it.
func New(api API) *Model {
	life, cancel := context.WithCancel(context.Background())
	return &Model{api: api, state: NewState(), life: life, cancel: cancel}
}

// Close cancels in-flight requests. Later calls return ErrClosed.
func (m *Model) Close() {
	m.cancel()
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Plants = slices.Clone(m.state.Plants)
	if m.state.EditID != nil {
		id := *m.state.EditID
		s.EditID = &id
	}
	return s
}

// View returns the filtered and sorted list.
func (m *Model) View() []domain.Plant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.View()
}

func (m *Model) SetSearch(s string) {
	m.mu.Lock()
	m.state.Search = s
	m.mu.Unlock()
}

func (m *Model) SetSortOrder(o SortOrder) {
	m.mu.Lock()
	m.state.SortOrder = o
	m.mu.Unlock()
}

// Load replaces the plant list with the server's.
func (m *Model) Load(ctx context.Context) error {
	ctx, done, err := m.call(ctx)
	if err != nil {
		return err
	}
	defer done()
	return m.load(ctx)
}

func (m *Model) load(ctx context.Context) error {
	plants, err := m.api.List(ctx)
	if err != nil {
		return m.closedOr(err)
	}
	return m.commit(func(s *State) { s.Plants = plants })
}

// Add creates a plant and inserts it at the head of the list.
func (m *Model) Add(ctx context.Context, name, species string) error {
	ctx, done, err := m.call(ctx)
	if err != nil {
		return err
	}
	defer done()

	p, err := m.api.Create(ctx, name, species)
	if err != nil {
		return m.closedOr(err)
	}
	if p == nil {
		return m.load(ctx)
	}
	return m.commit(func(s *State) {
		s.Plants = append([]domain.Plant{*p}, s.Plants...)
	})
}

// BeginEdit enters edit mode for id, copying its fields into the buffer.
func (m *Model) BeginEdit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.state.Plants, id)
	if i < 0 {
		return ErrUnknownPlant
	}
	p := m.state.Plants[i]
	m.state.EditID = &p.ID
	m.state.Edit = EditBuffer{Name: p.Name, Species: p.SpeciesOrEmpty()}
	return nil
}

func (m *Model) SetEditBuffer(b EditBuffer) {
	m.mu.Lock()
	m.state.Edit = b
	m.mu.Unlock()
}

// CancelEdit leaves edit mode and discards the buffer.
func (m *Model) CancelEdit() {
	m.mu.Lock()
	m.state.EditID = nil
	m.state.Edit = EditBuffer{}
	m.mu.Unlock()
}

// SaveEdit sends the buffer as an update and leaves edit mode. On failure
// the model stays in edit mode with the buffer intact.
func (m *Model) SaveEdit(ctx context.Context) error {
	m.mu.Lock()
	if m.state.EditID == nil {
		m.mu.Unlock()
		return ErrNotEditing
	}
	id, buf := *m.state.EditID, m.state.Edit
	m.mu.Unlock()

	ctx, done, err := m.call(ctx)
	if err != nil {
		return err
	}
	defer done()

	p, err := m.api.Update(ctx, id, buf.Name, buf.Species)
	if err != nil {
		return m.closedOr(err)
	}
	if err := m.commit(func(s *State) {
		s.EditID = nil
		s.Edit = EditBuffer{}
		if p != nil {
			replace(s.Plants, *p)
		}
	}); err != nil {
		return err
	}
	if p == nil {
		return m.load(ctx)
	}
	return nil
}

// Water marks the plant watered today.
func (m *Model) Water(ctx context.Context, id string) error {
	ctx, done, err := m.call(ctx)
	if err != nil {
		return err
	}
	defer done()

	p, err := m.api.Water(ctx, id)
	if err != nil {
		return m.closedOr(err)
	}
	if p == nil {
		return m.load(ctx)
	}
	return m.commit(func(s *State) { replace(s.Plants, *p) })
}

// Delete asks confirm and, when it agrees, deletes the plant. It reports
// whether a request was sent. A nil confirm always agrees.
func (m *Model) Delete(ctx context.Context, id string, confirm func(domain.Plant) bool) (bool, error) {
	m.mu.Lock()
	target := domain.Plant{ID: id}
	if i := indexOf(m.state.Plants, id); i >= 0 {
		target = m.state.Plants[i]
	}
	m.mu.Unlock()

	if confirm != nil && !confirm(target) {
		return false, nil
	}

	ctx, done, err := m.call(ctx)
	if err != nil {
		return false, err
	}
	defer done()

	if err := m.api.Delete(ctx, id); err != nil {
		return true, m.closedOr(err)
	}
	return true, m.commit(func(s *State) {
		s.Plants = slices.DeleteFunc(slices.Clone(s.Plants), func(p domain.Plant) bool { return p.ID == id })
		if s.Editing(id) {
			s.EditID = nil
			s.Edit = EditBuffer{}
		}
	})
}

// call derives a request context that is cancelled by either the caller or
// Close.
func (m *Model) call(ctx context.Context) (context.Context, func(), error) {
	if m.life.Err() != nil {
		return nil, nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.life, cancel)
	return ctx, func() { stop(); cancel() }, nil
}

func (m *Model) closedOr(err error) error {
	if m.life.Err() != nil {
		return ErrClosed
	}
	return err
}

// commit applies fn under the lock unless the model was closed meanwhile.
func (m *Model) commit(fn func(*State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.life.Err() != nil {
		return ErrClosed
	}
	fn(&m.state)
	return nil
}

func indexOf(plants []domain.Plant, id string) int {
	return slices.IndexFunc(plants, func(p domain.Plant) bool { return p.ID == id })
}

func replace(plants []domain.Plant, p domain.Plant) {
	if i := indexOf(plants, p.ID); i >= 0 {
		plants[i] = p
	}
}
