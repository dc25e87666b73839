package services

import (
	"context"
	"sort"
	"sync"

	"daily-routine/internal/auth"
	"daily-routine/internal/routine"

	"go.uber.org/zap"
)

type ServiceManager struct {
	Notification *NotificationService
	Sync         *SyncService

	dispatcher   *Dispatcher
	today        routine.Clock
	defaultColor string
	storeOptions []routine.StoreOption
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

type Option func(*ServiceManager)

func WithDefaultColor(color string) Option {
	return func(sm *ServiceManager) {
		if color != "" {
			sm.defaultColor = color
		}
	}
}

// WithStoreOptions опции для хранилища каждой новой сессии
func WithStoreOptions(opts ...routine.StoreOption) Option {
	return func(sm *ServiceManager) {
		sm.storeOptions = append(sm.storeOptions, opts...)
	}
}

func NewServiceManager(docs DocumentStore, today routine.Clock, logger *zap.Logger, opts ...Option) *ServiceManager {
	dispatcher := NewDispatcher(logger)

	sm := &ServiceManager{
		Notification: nil,
		Sync:         NewSyncService(docs, dispatcher, logger),
		dispatcher:   dispatcher,
		today:        today,
		defaultColor: routine.DefaultColor,
		logger:       logger,
		sessions:     make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func (sm *ServiceManager) SetNotificationSender(sender NotificationSender) {
	sm.Notification = NewNotificationService(sender, sm.Sessions, sm.today, sm.logger)
}

// OpenSession создает хранилище состояния для вошедшего пользователя,
// загружает его из удаленного хранилища и регистрирует сессию
func (sm *ServiceManager) OpenSession(ctx context.Context, identity auth.Identity, clientID string) *Session {
	s := &Session{
		clientID:     clientID,
		identity:     identity,
		store:        routine.NewStore(sm.today, sm.storeOptions...),
		sync:         sm.Sync,
		defaultColor: sm.defaultColor,
		logger:       sm.logger.With(zap.String("client", clientID), zap.String("uid", identity.UID)),
	}
	s.release = func() { sm.forget(s) }

	s.load(ctx)

	sm.mu.Lock()
	sm.sessions[s] = struct{}{}
	sm.mu.Unlock()
	return s
}

func (sm *ServiceManager) forget(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, s)
}

// Sessions открытые сессии, упорядоченные по клиенту
func (sm *ServiceManager) Sessions() []*Session {
	sm.mu.Lock()
	out := make([]*Session, 0, len(sm.sessions))
	for s := range sm.sessions {
		out = append(out, s)
	}
	sm.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].clientID < out[j].clientID
	})
	return out
}

// RolloverAll переход дня для всех открытых сессий (cron в полночь)
func (sm *ServiceManager) RolloverAll() int {
	rolled := 0
	for _, s := range sm.Sessions() {
		if !s.Rollover().IsNoOp() {
			rolled++
		}
	}
	if rolled > 0 {
		sm.logger.Info("🌅 Переход дня выполнен", zap.Int("sessions", rolled))
	}
	return rolled
}

// Flush ждет завершения фоновых записей
func (sm *ServiceManager) Flush(ctx context.Context) error {
	if err := sm.dispatcher.Flush(ctx); err != nil {
		sm.logger.Warn("⚠️ Не все записи успели завершиться",
			zap.Int("pending_keys", sm.dispatcher.Pending()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
