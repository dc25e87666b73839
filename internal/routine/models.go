package routine

import (
	"github.com/google/uuid"
)

// DateLayout формат календарной даты (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// DefaultColor цвет шага по умолчанию
const DefaultColor = "#FDE68A"

type Step struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Completed bool   `json:"completed"`
}

// HistoryEntry итог одного прошедшего дня
type HistoryEntry struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// State состояние рутины: шаги текущего дня, дата, к которой они относятся, и история
type State struct {
	Steps       Steps          `json:"steps"`
	LastUpdated string         `json:"last_updated"`
	History     []HistoryEntry `json:"history"`
}

// Clone возвращает глубокую копию состояния
func (s State) Clone() State {
	out := State{
		Steps:       s.Steps.Clone(),
		LastUpdated: s.LastUpdated,
	}
	if s.History != nil {
		out.History = append([]HistoryEntry(nil), s.History...)
	}
	return out
}

// NewID генерирует глобально уникальный идентификатор шага
func NewID() string {
	return uuid.NewString()
}
