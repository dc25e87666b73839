package services

import (
	"context"
	"strings"
	"sync"

	"daily-routine/internal/auth"
	"daily-routine/internal/routine"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session рутина одного вошедшего пользователя в одном клиенте.
// Создается при входе, уничтожается при выходе. Локальное состояние
// источник истины, удаленное хранилище только зеркало.
type Session struct {
	clientID     string
	identity     auth.Identity
	store        *routine.Store
	sync         *SyncService
	defaultColor string
	logger       *zap.Logger
	release      func()

	mu     sync.Mutex
	closed bool
}

// Progress прогресс текущего дня
type Progress struct {
	Completed int
	Total     int
	Percent   float64
}

func (s *Session) ClientID() string {
	return s.clientID
}

func (s *Session) Identity() auth.Identity {
	return s.identity
}

func (s *Session) Snapshot() routine.State {
	return s.store.Snapshot()
}

func (s *Session) Progress() Progress {
	completed, total := s.store.Snapshot().Steps.Counts()
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percent = float64(completed) / float64(total) * 100
	}
	return p
}

// load порядок: lastUpdated и история -> шаги дня lastUpdated ->
// решение о переходе дня (архив, сброс) -> запись lastUpdated последней
func (s *Session) load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &s.identity
	var (
		lastUpdated string
		found       bool
		readErr     error
		history     []routine.HistoryEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lastUpdated, found, readErr = s.sync.readLastUpdated(gctx, user)
		return nil
	})
	g.Go(func() error {
		history = s.sync.ReadHistory(gctx, user)
		return nil
	})
	_ = g.Wait()

	today := s.store.Today()
	if readErr != nil {
		s.logger.Warn("⚠️ lastUpdated недоступен, работаем с сегодняшним днем", zap.Error(readErr))
		lastUpdated = today
	}
	if !found {
		lastUpdated = today
	}

	steps := s.sync.Hydrate(ctx, user, lastUpdated)
	repaired := false
	if lastUpdated != today {
		// шаги уже перенесены в сегодняшний день, но lastUpdated не записался
		if current := s.sync.Hydrate(ctx, user, today); len(current) > 0 {
			history = s.finishRollover(lastUpdated, steps, history)
			lastUpdated, steps, repaired = today, current, true
		}
	}

	s.store.SetLastUpdated(lastUpdated)
	s.store.SetHistory(history)
	if err := s.store.ReplaceAll(steps); err != nil {
		s.logger.Error("❌ Удаленные шаги с повторяющимися id", zap.Error(err))
	}

	action := s.rolloverLocked()
	if action.IsNoOp() && (repaired || (!found && readErr == nil)) {
		s.sync.WriteLastUpdated(user, today)
	}

	snap := s.store.Snapshot()
	s.logger.Info("📥 Сессия загружена",
		zap.String("date", snap.LastUpdated),
		zap.Int("steps", len(snap.Steps)),
		zap.Int("history", len(snap.History)),
	)
}

// finishRollover доводит прерванный переход дня: архивирует устаревший день,
// если записи в истории еще нет, и очищает его бакет
func (s *Session) finishRollover(date string, stale routine.Steps, history []routine.HistoryEntry) []routine.HistoryEntry {
	if len(stale) == 0 {
		return history
	}

	archived := false
	for _, entry := range history {
		if entry.Date == date {
			archived = true
			break
		}
	}
	if completed, total := stale.Counts(); !archived && total > 0 {
		entry := routine.HistoryEntry{Date: date, Completed: completed, Total: total}
		s.sync.WriteHistoryEntry(&s.identity, entry)
		history = append(history, entry)
	}
	s.sync.ClearDay(&s.identity, date)

	s.logger.Info("🩹 Прерванный переход дня завершен", zap.String("from", date))
	return history
}

// Rollover переводит рутину на сегодняшний день, если дата сменилась
func (s *Session) Rollover() routine.RolloverAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolloverLocked()
}

func (s *Session) rolloverLocked() routine.RolloverAction {
	before := s.store.Snapshot()
	action := s.store.Rollover()
	if action.IsNoOp() {
		return action
	}

	user := s.user()
	if action.Archive != nil {
		s.sync.WriteHistoryEntry(user, *action.Archive)
	}

	after := s.store.Snapshot()
	moved := before.LastUpdated != "" && before.LastUpdated != after.LastUpdated
	for i, step := range after.Steps {
		if moved {
			s.sync.DeleteStep(user, before.LastUpdated, step.ID)
		}
		s.sync.PersistStep(user, after.LastUpdated, step, i, s.assignID(step.ID))
	}
	if moved {
		s.sync.ClearDay(user, before.LastUpdated)
	}
	s.sync.WriteLastUpdated(user, after.LastUpdated)

	fields := []zap.Field{zap.String("from", before.LastUpdated), zap.String("to", after.LastUpdated)}
	if action.Archive != nil {
		fields = append(fields, zap.Int("completed", action.Archive.Completed), zap.Int("total", action.Archive.Total))
	}
	s.logger.Info("🌅 Новый день", fields...)
	return action
}

// Add проверяет ввод и добавляет шаг в конец списка
func (s *Session) Add(title, icon, color string) (routine.Step, error) {
	title, icon = strings.TrimSpace(title), strings.TrimSpace(icon)
	if err := routine.ValidateStep(title, icon); err != nil {
		return routine.Step{}, err
	}
	if color == "" {
		color = s.defaultColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	step := s.store.Add(title, icon, color)
	s.persist(step.ID)
	return step, nil
}

func (s *Session) Toggle(id string) (routine.Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	step, ok := s.store.Toggle(id)
	if ok {
		s.persist(id)
	}
	return step, ok
}

func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	snap := s.store.Snapshot()
	index := snap.Steps.Index(id)
	if !s.store.Remove(id) {
		return false
	}
	s.sync.DeleteStep(s.user(), snap.LastUpdated, id)
	s.persistFrom(index)
	return true
}

func (s *Session) MoveUp(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	if !s.store.MoveUp(id) {
		return false
	}
	index := s.store.Snapshot().Steps.Index(id)
	s.persistFrom(index)
	return true
}

func (s *Session) MoveDown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	if !s.store.MoveDown(id) {
		return false
	}
	index := s.store.Snapshot().Steps.Index(id)
	s.persistFrom(index - 1)
	return true
}

// ResetAll снимает все отметки и зеркалирует каждый шаг
func (s *Session) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	s.store.ResetAll()
	s.persistFrom(0)
}

// persist зеркалирует один шаг с его текущей позицией
func (s *Session) persist(id string) {
	snap := s.store.Snapshot()
	if i := snap.Steps.Index(id); i >= 0 {
		s.sync.PersistStep(s.user(), snap.LastUpdated, snap.Steps[i], i, s.assignID(id))
	}
}

// persistFrom зеркалирует шаги, чьи позиции могли сдвинуться
func (s *Session) persistFrom(index int) {
	if index < 0 {
		index = 0
	}
	snap := s.store.Snapshot()
	for i := index; i < len(snap.Steps); i++ {
		s.sync.PersistStep(s.user(), snap.LastUpdated, snap.Steps[i], i, s.assignID(snap.Steps[i].ID))
	}
}

func (s *Session) assignID(oldID string) func(string) {
	return func(newID string) {
		if s.store.AssignID(oldID, newID) {
			s.logger.Info("🆔 Шагу присвоен id хранилища", zap.String("step_id", newID))
		}
	}
}

// user после закрытия сессии зеркалирование прекращается
func (s *Session) user() *auth.Identity {
	if s.closed {
		return nil
	}
	return &s.identity
}

// Close уничтожает сессию (выход пользователя)
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}
	s.logger.Info("👋 Сессия закрыта")
}
