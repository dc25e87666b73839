package services

import (
	"fmt"
	"strings"

	"daily-routine/internal/routine"

	"go.uber.org/zap"
)

// NotificationSender интерфейс для отправки уведомлений клиенту сессии
type NotificationSender interface {
	SendMessageTo(clientID string, text string) error
}

type NotificationService struct {
	sender   NotificationSender
	sessions func() []*Session
	today    routine.Clock
	logger   *zap.Logger
}

func NewNotificationService(sender NotificationSender, sessions func() []*Session, today routine.Clock, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		sender:   sender,
		sessions: sessions,
		today:    today,
		logger:   logger,
	}
}

// SendDailySummaries отправляет итоги дня каждой открытой сессии с шагами
func (ns *NotificationService) SendDailySummaries() int {
	sent := 0
	for _, s := range ns.sessions() {
		progress := s.Progress()
		if progress.Total == 0 {
			continue
		}

		if err := ns.sender.SendMessageTo(s.ClientID(), FormatDailySummary(ns.today(), progress)); err != nil {
			ns.logger.Warn("⚠️ Ошибка отправки итогов дня",
				zap.String("client", s.ClientID()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	ns.logger.Info("📊 Итоги дня отправлены", zap.Int("sessions", sent))
	return sent
}

func FormatDailySummary(date string, p Progress) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("📊 <b>Day summary %s</b>\n\n", date))
	message.WriteString(fmt.Sprintf("✅ %d of %d steps done (%.0f%%)\n\n", p.Completed, p.Total, p.Percent))

	switch {
	case p.Completed == p.Total:
		message.WriteString("🎉 Everything is done. Great job!")
	case p.Completed == 0:
		message.WriteString("🌙 There is still time for a step or two.")
	default:
		message.WriteString("Tomorrow is a new day! 🌅")
	}
	return message.String()
}

// FormatHistory последние limit записей, новые сверху
func FormatHistory(history []routine.HistoryEntry, limit int) string {
	if len(history) == 0 {
		return "📭 No history yet"
	}

	var message strings.Builder
	message.WriteString("📈 <b>Recent progress</b>\n\n")
	for i, shown := len(history)-1, 0; i >= 0 && shown < limit; i, shown = i-1, shown+1 {
		h := history[i]
		message.WriteString(fmt.Sprintf("<b>%s</b>: %d/%d done\n", h.Date, h.Completed, h.Total))
	}
	return message.String()
}
