package routine

import (
	"fmt"
)

// Steps упорядоченный список шагов одного дня. Порядок значим,
// идентификаторы не повторяются. Все операции возвращают новый список.
type Steps []Step

func (s Steps) Clone() Steps {
	if s == nil {
		return nil
	}
	return append(Steps(nil), s...)
}

// Index возвращает позицию шага или -1
func (s Steps) Index(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Steps) Find(id string) (Step, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Step{}, false
}

// Counts возвращает число выполненных шагов и общее число шагов
func (s Steps) Counts() (completed, total int) {
	for _, step := range s {
		if step.Completed {
			completed++
		}
	}
	return completed, len(s)
}

// Append добавляет шаг в конец списка
func (s Steps) Append(step Step) Steps {
	out := make(Steps, 0, len(s)+1)
	out = append(out, s...)
	return append(out, step)
}

// Toggle переключает completed у шага с id. Отсутствие шага не ошибка.
func (s Steps) Toggle(id string) (Steps, bool) {
	i := s.Index(id)
	if i < 0 {
		return s, false
	}
	out := s.Clone()
	out[i].Completed = !out[i].Completed
	return out, true
}

func (s Steps) Remove(id string) (Steps, bool) {
	i := s.Index(id)
	if i < 0 {
		return s, false
	}
	out := make(Steps, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), true
}

// MoveUp меняет шаг местами с предыдущим
func (s Steps) MoveUp(id string) (Steps, bool) {
	i := s.Index(id)
	if i <= 0 {
		return s, false
	}
	return s.swap(i, i-1), true
}

// MoveDown меняет шаг местами со следующим
func (s Steps) MoveDown(id string) (Steps, bool) {
	i := s.Index(id)
	if i < 0 || i >= len(s)-1 {
		return s, false
	}
	return s.swap(i, i+1), true
}

func (s Steps) swap(i, j int) Steps {
	out := s.Clone()
	out[i], out[j] = out[j], out[i]
	return out
}

// ResetAll снимает отметку выполнения со всех шагов, порядок не меняется
func (s Steps) ResetAll() Steps {
	out := s.Clone()
	for i := range out {
		out[i].Completed = false
	}
	return out
}

// CheckUnique проверяет отсутствие повторяющихся идентификаторов
func (s Steps) CheckUnique() error {
	seen := make(map[string]struct{}, len(s))
	for _, step := range s {
		if _, ok := seen[step.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStepID, step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}
