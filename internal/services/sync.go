package services

import (
	"context"
	"errors"
	"sort"

	"daily-routine/internal/auth"
	"daily-routine/internal/database"
	"daily-routine/internal/routine"
	"daily-routine/internal/utils"

	"go.uber.org/zap"
)

// DocumentStore удаленное хранилище документов (database.Repository)
type DocumentStore interface {
	GetDocument(ctx context.Context, path string) (*database.Document, error)
	ListCollection(ctx context.Context, path string) ([]database.Document, error)
	SetDocument(ctx context.Context, path string, fields database.Fields, merge bool) error
	AddDocument(ctx context.Context, collection string, fields database.Fields) (string, error)
	DeleteDocument(ctx context.Context, path string) error
	DeleteCollection(ctx context.Context, path string) error
}

const (
	usersCollection   = "users"
	historyCollection = "history"
	lastUpdatedField  = "lastUpdated"
)

// SyncService зеркалирует локальные мутации в хранилище документов:
//
//	users/{uid}                     поле lastUpdated
//	users/{uid}/{date}/{stepId}     шаги дня
//	users/{uid}/history/{date}      итоги прошедших дней
//
// Чтения синхронны, записи fire-and-forget через Dispatcher.
// Ошибки хранилища логируются и никогда не возвращаются вызывающему.
type SyncService struct {
	docs       DocumentStore
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewSyncService(docs DocumentStore, dispatcher *Dispatcher, logger *zap.Logger) *SyncService {
	return &SyncService{
		docs:       docs,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func userPath(uid string) string {
	return database.Path(usersCollection, uid)
}

func dayPath(uid, date string) string {
	return database.Path(usersCollection, uid, date)
}

func stepPath(uid, date, id string) string {
	return database.Path(usersCollection, uid, date, id)
}

func historyPath(uid, date string) string {
	return database.Path(usersCollection, uid, historyCollection, date)
}

// Hydrate читает шаги пользователя за дату. Без пользователя или при ошибке пустой список.
func (ss *SyncService) Hydrate(ctx context.Context, user *auth.Identity, date string) routine.Steps {
	if user == nil {
		return nil
	}

	path := dayPath(user.UID, date)
	docs, err := ss.docs.ListCollection(ctx, path)
	if err != nil {
		ss.warn("⚠️ Ошибка загрузки шагов", user.UID, path, err)
		return nil
	}

	type positioned struct {
		step     routine.Step
		position float64
	}
	items := make([]positioned, 0, len(docs))
	for i, doc := range docs {
		position, ok := numberField(doc.Fields, "position")
		if !ok {
			position = float64(len(docs) + i)
		}
		items = append(items, positioned{step: stepFromDocument(doc), position: position})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].position < items[j].position
	})

	steps := make(routine.Steps, 0, len(items))
	for _, item := range items {
		steps = append(steps, item.step)
	}
	return steps
}

// PersistStep upsert шага с позицией. Если у шага нет id, хранилище выдает
// новый и сообщает его через onAssigned.
func (ss *SyncService) PersistStep(user *auth.Identity, date string, step routine.Step, position int, onAssigned func(id string)) {
	if user == nil {
		return
	}

	fields := stepFields(step, position)
	if step.ID == "" {
		ss.dispatcher.Submit("step-new:"+user.UID, func(ctx context.Context) {
			path := dayPath(user.UID, date)
			id, err := ss.docs.AddDocument(ctx, path, fields)
			if err != nil {
				ss.warn("⚠️ Ошибка создания шага", user.UID, path, err)
				return
			}
			if onAssigned != nil {
				onAssigned(id)
			}
		})
		return
	}

	path := stepPath(user.UID, date, step.ID)
	ss.dispatcher.Submit(stepKey(user.UID, step.ID), func(ctx context.Context) {
		if err := ss.docs.SetDocument(ctx, path, fields, true); err != nil {
			ss.warn("⚠️ Ошибка сохранения шага", user.UID, path, err)
		}
	})
}

// DeleteStep отсутствие документа не ошибка
func (ss *SyncService) DeleteStep(user *auth.Identity, date, id string) {
	if user == nil || id == "" {
		return
	}

	path := stepPath(user.UID, date, id)
	ss.dispatcher.Submit(stepKey(user.UID, id), func(ctx context.Context) {
		if err := ss.docs.DeleteDocument(ctx, path); err != nil {
			ss.warn("⚠️ Ошибка удаления шага", user.UID, path, err)
		}
	})
}

// ClearDay удаляет всю корзину шагов за дату (старый день после перехода)
func (ss *SyncService) ClearDay(user *auth.Identity, date string) {
	if user == nil || date == "" {
		return
	}

	path := dayPath(user.UID, date)
	ss.dispatcher.Submit("day:"+path, func(ctx context.Context) {
		if err := ss.docs.DeleteCollection(ctx, path); err != nil {
			ss.warn("⚠️ Ошибка очистки дня", user.UID, path, err)
		}
	})
}

// ReadLastUpdated дата, которую представляют сохраненные шаги, если она есть
func (ss *SyncService) ReadLastUpdated(ctx context.Context, user *auth.Identity) (string, bool) {
	date, found, err := ss.readLastUpdated(ctx, user)
	if err != nil {
		ss.warn("⚠️ Ошибка чтения lastUpdated", user.UID, userPath(user.UID), err)
		return "", false
	}
	return date, found
}

func (ss *SyncService) readLastUpdated(ctx context.Context, user *auth.Identity) (string, bool, error) {
	if user == nil {
		return "", false, nil
	}

	doc, err := ss.docs.GetDocument(ctx, userPath(user.UID))
	if errors.Is(err, database.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	date, ok := doc.Fields[lastUpdatedField].(string)
	if !ok || date == "" {
		return "", false, nil
	}
	if !utils.ValidDate(date) {
		ss.logger.Warn("⚠️ Некорректный lastUpdated, считаем отсутствующим",
			zap.String("uid", user.UID),
			zap.String("value", date),
		)
		return "", false, nil
	}
	return date, true, nil
}

func (ss *SyncService) WriteLastUpdated(user *auth.Identity, date string) {
	if user == nil {
		return
	}

	path := userPath(user.UID)
	ss.dispatcher.Submit("user:"+user.UID, func(ctx context.Context) {
		if err := ss.docs.SetDocument(ctx, path, database.Fields{lastUpdatedField: date}, true); err != nil {
			ss.warn("⚠️ Ошибка сохранения lastUpdated", user.UID, path, err)
		}
	})
}

// WriteHistoryEntry upsert по дате; дни без шагов не записываются
func (ss *SyncService) WriteHistoryEntry(user *auth.Identity, entry routine.HistoryEntry) {
	if user == nil || entry.Total == 0 {
		return
	}

	path := historyPath(user.UID, entry.Date)
	fields := database.Fields{
		"date":      entry.Date,
		"completed": entry.Completed,
		"total":     entry.Total,
	}
	ss.dispatcher.Submit("history:"+path, func(ctx context.Context) {
		if err := ss.docs.SetDocument(ctx, path, fields, true); err != nil {
			ss.warn("⚠️ Ошибка сохранения истории", user.UID, path, err)
		}
	})
}

// ReadHistory история пользователя по возрастанию даты
func (ss *SyncService) ReadHistory(ctx context.Context, user *auth.Identity) []routine.HistoryEntry {
	if user == nil {
		return nil
	}

	path := database.Path(usersCollection, user.UID, historyCollection)
	docs, err := ss.docs.ListCollection(ctx, path)
	if err != nil {
		ss.warn("⚠️ Ошибка загрузки истории", user.UID, path, err)
		return nil
	}

	history := make([]routine.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		entry := routine.HistoryEntry{Date: doc.ID}
		if date, ok := doc.Fields["date"].(string); ok && date != "" {
			entry.Date = date
		}
		completed, _ := numberField(doc.Fields, "completed")
		total, _ := numberField(doc.Fields, "total")
		entry.Completed, entry.Total = int(completed), int(total)
		history = append(history, entry)
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})
	return history
}

// Flush ждет завершения отправленных записей (остановка, тесты)
func (ss *SyncService) Flush(ctx context.Context) error {
	return ss.dispatcher.Flush(ctx)
}

func (ss *SyncService) warn(msg, uid, path string, err error) {
	ss.logger.Warn(msg,
		zap.String("uid", uid),
		zap.String("path", path),
		zap.Error(err),
	)
}

func stepKey(uid, id string) string {
	return "step:" + uid + "/" + id
}

func stepFields(step routine.Step, position int) database.Fields {
	return database.Fields{
		"title":     step.Title,
		"icon":      step.Icon,
		"color":     step.Color,
		"completed": step.Completed,
		"position":  position,
	}
}

func stepFromDocument(doc database.Document) routine.Step {
	step := routine.Step{ID: doc.ID}
	step.Title, _ = doc.Fields["title"].(string)
	step.Icon, _ = doc.Fields["icon"].(string)
	step.Color, _ = doc.Fields["color"].(string)
	step.Completed, _ = doc.Fields["completed"].(bool)
	return step
}

// numberField числа после JSON приходят как float64, из фейков как int
func numberField(fields database.Fields, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
