package telegram

import (
	"fmt"
	"html"
	"strings"

	"daily-routine/internal/routine"
	"daily-routine/internal/services"
	"daily-routine/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const commandList = `/today - today's routine
/add title icon [#color] - add a step
/reset - uncheck every step
/history - recent days
/starter - add a starter routine to an empty list
/whoami - current account
/logout - sign out
/help - this help`

const (
	msgWelcome = `🌅 <b>Daily Routine</b>

Build your day step by step and check things off as you go.

Sign in to start:
/signup email password - create an account
/login email password - sign in`

	msgWelcomeBack      = "🌅 Welcome back, <b>%s</b>!"
	msgHelp             = "📖 <b>Commands</b>\n\n/signup email password\n/login email password\n" + commandList + "\n\nExample:\n/add Brush teeth 🪥 #BFDBFE"
	msgSignInRequired   = "🔒 Please sign in first: /login email password or /signup email password"
	msgUnknownCommand   = "❌ Unknown command. Use /help"
	msgCredentialsUsage = "❌ Format: /%s email password"
	msgSignedUp         = "🎉 Account created. Welcome, <b>%s</b>!\n\nUse /starter for a ready-made routine or /add to build your own.\n\n" + commandList
	msgSignedIn         = "🔓 Signed in as <b>%s</b>\n\n" + commandList
	msgSignedOut        = "👋 Signed out"
	msgNotSignedIn      = "🔒 Not signed in"
	msgWhoAmI           = "👤 Signed in as <b>%s</b>\n%s"
	msgAddUsage         = "❌ Format: /add title icon [#color]\nExample: /add Get dressed 👕 #BBF7D0"
	msgNoSteps          = "📭 No steps yet. Use /add or /starter"
	msgReset            = "🔄 All steps unchecked"
	msgStarterSkipped   = "ℹ️ The starter routine is only added to an empty list"
)

// Callback-данные кнопок: <action>_<stepId>
const (
	actionToggle = "toggle"
	actionUp     = "up"
	actionDown   = "down"
	actionRemove = "remove"
)

func callbackData(action, id string) string {
	return action + "_" + id
}

func parseCallback(data string) (action, id string, ok bool) {
	action, id, found := strings.Cut(data, "_")
	if !found || id == "" {
		return "", "", false
	}
	switch action {
	case actionToggle, actionUp, actionDown, actionRemove:
		return action, id, true
	default:
		return "", "", false
	}
}

// renderToday список шагов дня с прогрессом
func renderToday(state routine.State, progress services.Progress) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("📅 <b>Today, %s</b>\n\n", utils.FormatDateForDisplay(state.LastUpdated)))

	for i, step := range state.Steps {
		status := "⬜"
		if step.Completed {
			status = "✅"
		}
		message.WriteString(fmt.Sprintf("%s %d. %s %s <b>%s</b>\n",
			status, i+1, utils.GetColorEmoji(step.Color), step.Icon, escape(step.Title)))
	}

	message.WriteString(fmt.Sprintf("\n✅ %d of %d steps done (%.0f%%)", progress.Completed, progress.Total, progress.Percent))
	if progress.Total > 0 && progress.Completed == progress.Total {
		message.WriteString("\n🎉 All done for today!")
	}
	return message.String()
}

// todayKeyboard строка кнопок на каждый шаг: отметка, вверх, вниз, удалить
func todayKeyboard(steps routine.Steps) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(steps))
	for i, step := range steps {
		mark := "⬜"
		if step.Completed {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d. %s", mark, i+1, step.Icon), callbackData(actionToggle, step.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⬆", callbackData(actionUp, step.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⬇", callbackData(actionDown, step.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✕", callbackData(actionRemove, step.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func escape(s string) string {
	return html.EscapeString(s)
}

// reply отправляет сообщение, ошибка отправки только логируется
func (b *Bot) reply(chatID int64, message string) {
	if err := b.SendMessage(chatID, message); err != nil {
		b.logger.Warn("⚠️ Ошибка отправки сообщения",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
