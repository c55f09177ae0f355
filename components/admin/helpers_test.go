package admin

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memRepo[T Entity] struct {
	mu      sync.Mutex
	records map[string]T
	failOn  map[string]error
	saves   []string
}

func newMemRepo[T Entity](records ...T) *memRepo[T] {
	repo := &memRepo[T]{records: map[string]T{}, failOn: map[string]error{}}
	for _, r := range records {
		repo.records[r.EntityID()] = r
	}
	return repo
}

func (m *memRepo[T]) List(_ context.Context, query ListQuery) (ListPage[T], error) {
	all, _ := m.All(context.Background())
	return ApplyListQuery(all, query)
}

func (m *memRepo[T]) All(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		var zero T
		return zero, NotFound("record", id)
	}
	return r, nil
}

func (m *memRepo[T]) Save(_ context.Context, record T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[record.EntityID()]; err != nil {
		var zero T
		return zero, err
	}
	m.records[record.EntityID()] = record
	m.saves = append(m.saves, record.EntityID())
	return record, nil
}

func (m *memRepo[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return NotFound("record", id)
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo[T]) resetSaves() {
	m.mu.Lock()
	m.saves = nil
	m.mu.Unlock()
}

type memSettings struct {
	mu       sync.Mutex
	settings StyleSettings
	err      error
}

func (m *memSettings) LoadSettings(context.Context) (StyleSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return StyleSettings{}, m.err
	}
	return m.settings.Clone(), nil
}

func (m *memSettings) SaveSettings(_ context.Context, settings StyleSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings.Clone()
	return nil
}

type collectingHook struct {
	mu     sync.Mutex
	events []EntityEvent
	err    error
}

func (h *collectingHook) EntityChanged(_ context.Context, event EntityEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

type testEnv struct {
	service    *Service
	projects   *memRepo[Project]
	categories *memRepo[HashtagCategory]
	users      *memRepo[AdminUser]
	variables  *memRepo[VariableDefinition]
	styles     *memRepo[StyleTheme]
	charts     *memRepo[ChartAlgorithm]
	settings   *memSettings
	hook       *collectingHook
	telemetry  *recordingTelemetry
}

var errSaveFailed = errors.New("save failed")

func newTestEnv(mutators ...func(*Options)) *testEnv {
	env := &testEnv{
		projects:   newMemRepo[Project](),
		categories: newMemRepo[HashtagCategory](),
		users:      newMemRepo[AdminUser](),
		variables:  newMemRepo[VariableDefinition](),
		styles:     newMemRepo[StyleTheme](),
		charts:     newMemRepo[ChartAlgorithm](),
		settings:   &memSettings{},
		hook:       &collectingHook{},
		telemetry:  &recordingTelemetry{},
	}
	ids := 0
	opts := Options{
		Projects:    env.projects,
		Categories:  env.categories,
		Users:       env.users,
		Variables:   env.variables,
		Styles:      env.styles,
		Charts:      env.charts,
		Settings:    env.settings,
		RefreshHook: env.hook,
		Telemetry:   env.telemetry,
		Now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			ids++
			return "id-" + string(rune('a'+ids-1))
		},
	}
	for _, mutate := range mutators {
		mutate(&opts)
	}
	env.service = NewService(opts)
	return env
}

func intPtr(v int) *int { return &v }

func countVar(name, category string, order int) VariableDefinition {
	return VariableDefinition{
		Name:         name,
		Label:        name,
		Type:         TypeCount,
		Category:     category,
		Flags:        VariableFlags{VisibleInClicker: true, EditableInManual: true},
		ClickerOrder: intPtr(order),
	}
}
