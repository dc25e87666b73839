package services

import (
	"time"

	"daily-routine/internal/routine"
)

// StarterStep шаблон шага стартовой рутины
type StarterStep struct {
	Title string
	Icon  string
	Color string
}

// StarterRoutine стартовый набор шагов; по выходным без школьных сборов
func StarterRoutine(weekday time.Weekday) []StarterStep {
	steps := []StarterStep{
		{Title: "Wake Up", Icon: "⏰", Color: "#FDE68A"},
		{Title: "Brush Teeth", Icon: "🪥", Color: "#BFDBFE"},
		{Title: "Get Dressed", Icon: "👕", Color: "#BBF7D0"},
		{Title: "Breakfast", Icon: "🥣", Color: "#FED7AA"},
	}

	if weekday >= time.Monday && weekday <= time.Friday {
		steps = append(steps, StarterStep{Title: "Pack School Bag", Icon: "🎒", Color: "#DDD6FE"})
	}

	steps = append(steps, StarterStep{Title: "Bedtime Story", Icon: "📖", Color: "#FBCFE8"})
	return steps
}

// AddStarterRoutine добавляет стартовую рутину, только если список пуст
func (s *Session) AddStarterRoutine() ([]routine.Step, error) {
	if len(s.Snapshot().Steps) > 0 {
		return nil, nil
	}

	date, err := time.Parse(routine.DateLayout, s.store.Today())
	if err != nil {
		return nil, err
	}

	var added []routine.Step
	for _, tpl := range StarterRoutine(date.Weekday()) {
		step, err := s.Add(tpl.Title, tpl.Icon, tpl.Color)
		if err != nil {
			return added, err
		}
		added = append(added, step)
	}
	return added, nil
}
