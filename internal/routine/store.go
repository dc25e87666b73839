package routine

import (
	"sync"
)

// Clock возвращает сегодняшнюю дату в формате DateLayout
type Clock func() string

// Store владеет состоянием рутины одной сессии. Мутации синхронны
// и не перемежаются друг с другом.
type Store struct {
	mu    sync.Mutex
	state State
	today Clock
	newID func() string
}

type StoreOption func(*Store)

// WithIDGenerator подменяет генератор идентификаторов (для тестов)
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore создает хранилище; lastUpdated изначально равен сегодняшней дате
func NewStore(today Clock, opts ...StoreOption) *Store {
	s := &Store{
		today: today,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.LastUpdated = today()
	return s
}

// Snapshot возвращает копию состояния только для чтения
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Today() string {
	return s.today()
}

// Add добавляет новый шаг в конец списка. Ввод проверяется вызывающим (ValidateStep).
func (s *Store) Add(title, icon, color string) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := Step{
		ID:    s.newID(),
		Title: title,
		Icon:  icon,
		Color: color,
	}
	s.state.Steps = s.state.Steps.Append(step)
	return step
}

// Toggle переключает шаг и отмечает список как тронутый сегодня
func (s *Store) Toggle(id string) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.state.Steps.Toggle(id)
	if !ok {
		return Step{}, false
	}
	s.state.Steps = steps
	s.state.LastUpdated = s.today()
	step, _ := steps.Find(id)
	return step, true
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.state.Steps.Remove(id)
	s.state.Steps = steps
	return ok
}

func (s *Store) MoveUp(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.state.Steps.MoveUp(id)
	s.state.Steps = steps
	return ok
}

func (s *Store) MoveDown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.state.Steps.MoveDown(id)
	s.state.Steps = steps
	return ok
}

func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Steps = s.state.Steps.ResetAll()
}

// ReplaceAll полностью заменяет список (гидрация). Повторяющиеся id
// это ошибка вызывающего: список не меняется, дубликаты не удаляются молча.
func (s *Store) ReplaceAll(steps []Step) error {
	next := Steps(steps).Clone()
	if err := next.CheckUnique(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Steps = next
	return nil
}

// AssignID исправляет id шага после того, как хранилище выдало новый.
// Пустой oldID соответствует первому шагу без идентификатора.
func (s *Store) AssignID(oldID, newID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Steps.Index(newID) >= 0 {
		return false
	}
	i := s.state.Steps.Index(oldID)
	if i < 0 {
		return false
	}
	steps := s.state.Steps.Clone()
	steps[i].ID = newID
	s.state.Steps = steps
	return true
}

func (s *Store) SetLastUpdated(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastUpdated = date
	s.state.History = withoutDate(s.state.History, date)
}

// SetHistory загружает историю из удаленного хранилища
func (s *Store) SetHistory(history []HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []HistoryEntry
	for _, h := range history {
		out = upsertHistory(out, h)
	}
	s.state.History = withoutDate(out, s.state.LastUpdated)
}

// Rollover принимает и применяет решение о переходе дня атомарно
func (s *Store) Rollover() RolloverAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := DecideRollover(s.today(), s.state)
	s.state = action.Apply(s.state)
	return action
}
