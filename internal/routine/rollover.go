package routine

// RolloverAction решение о переходе на новый день
type RolloverAction struct {
	Rollover       bool
	Archive        *HistoryEntry
	ResetSteps     bool
	NewLastUpdated string
}

// IsNoOp true, если состояние уже относится к сегодняшнему дню
func (a RolloverAction) IsNoOp() bool {
	return !a.Rollover
}

// DecideRollover чистая функция: по today и текущему состоянию решает,
// нужно ли архивировать прошлый день и сбросить шаги.
// День без шагов в историю не попадает.
func DecideRollover(today string, state State) RolloverAction {
	if state.LastUpdated == today {
		return RolloverAction{}
	}

	action := RolloverAction{
		Rollover:       true,
		ResetSteps:     true,
		NewLastUpdated: today,
	}

	completed, total := state.Steps.Counts()
	if state.LastUpdated != "" && total > 0 {
		action.Archive = &HistoryEntry{
			Date:      state.LastUpdated,
			Completed: completed,
			Total:     total,
		}
	}

	return action
}

// Apply применяет решение к состоянию и возвращает новое состояние.
// Повторный DecideRollover на результате всегда NoOp.
func (a RolloverAction) Apply(state State) State {
	if a.IsNoOp() {
		return state
	}

	out := state.Clone()
	if a.Archive != nil {
		out.History = upsertHistory(out.History, *a.Archive)
	}
	if a.ResetSteps {
		out.Steps = out.Steps.ResetAll()
	}
	out.LastUpdated = a.NewLastUpdated
	out.History = withoutDate(out.History, out.LastUpdated)

	return out
}

// upsertHistory одна запись на дату, порядок вставки сохраняется
func upsertHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	for i := range history {
		if history[i].Date == entry.Date {
			history[i] = entry
			return history
		}
	}
	return append(history, entry)
}

// withoutDate текущий день не может быть одновременно в работе и в архиве
func withoutDate(history []HistoryEntry, date string) []HistoryEntry {
	out := history[:0:0]
	for _, h := range history {
		if h.Date != date {
			out = append(out, h)
		}
	}
	if len(out) == len(history) {
		return history
	}
	return out
}
