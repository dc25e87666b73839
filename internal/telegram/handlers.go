package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daily-routine/internal/auth"
	"daily-routine/internal/routine"
	"daily-routine/internal/services"
	"daily-routine/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handlers.go - обработчики команд Telegram бота

const historyLimit = 5

var errAddUsage = errors.New("usage: /add title icon [#color]")

func (b *Bot) handleStart(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	if identity, ok := c.gate.Identity(); ok {
		b.reply(c.id, fmt.Sprintf(msgWelcomeBack, escape(identity.Email)))
		b.handleToday(ctx, c, msg)
		return
	}
	b.reply(c.id, msgWelcome)
}

func (b *Bot) handleHelp(_ context.Context, c *chat, _ *tgbotapi.Message) {
	b.reply(c.id, msgHelp)
}

func (b *Bot) handleSignUp(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	b.authenticate(ctx, c, msg, c.provider.SignUp, msgSignedUp)
}

func (b *Bot) handleLogin(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	b.authenticate(ctx, c, msg, c.provider.SignIn, msgSignedIn)
}

// authenticate общий путь /signup и /login: сообщение с паролем удаляется
// из чата, ошибки провайдера показываются без префикса
func (b *Bot) authenticate(ctx context.Context, c *chat, msg *tgbotapi.Message,
	action func(ctx context.Context, email, password string) (auth.Identity, error), success string) {

	email, password, ok := parseCredentials(msg.CommandArguments())
	if !ok {
		b.reply(c.id, fmt.Sprintf(msgCredentialsUsage, msg.Command()))
		return
	}
	b.safeDeleteMessage(c.id, msg.MessageID)

	identity, err := action(ctx, email, password)
	if err != nil {
		b.logger.Info("🔐 Ошибка аутентификации",
			zap.Int64("chat_id", c.id),
			zap.String("command", msg.Command()),
			zap.Error(err),
		)
		b.reply(c.id, "❌ "+escape(auth.DisplayMessage(err)))
		return
	}

	b.reply(c.id, fmt.Sprintf(success, escape(identity.Email)))
}

func (b *Bot) handleLogout(ctx context.Context, c *chat, _ *tgbotapi.Message) {
	if err := c.provider.SignOut(ctx); err != nil {
		b.logger.Warn("⚠️ Ошибка выхода", zap.Int64("chat_id", c.id), zap.Error(err))
	}
	b.reply(c.id, msgSignedOut)
}

func (b *Bot) handleWhoAmI(_ context.Context, c *chat, _ *tgbotapi.Message) {
	identity, ok := c.gate.Identity()
	if !ok {
		b.reply(c.id, msgNotSignedIn)
		return
	}
	b.reply(c.id, fmt.Sprintf(msgWhoAmI, escape(identity.Email), utils.GetTimezoneInfo(b.location, time.Now())))
}

func (b *Bot) handleAdd(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	session := c.currentSession()
	if session == nil {
		b.reply(c.id, msgSignInRequired)
		return
	}

	title, icon, color, err := parseAddArgs(msg.CommandArguments())
	if err != nil {
		b.reply(c.id, msgAddUsage)
		return
	}

	step, err := session.Add(title, icon, color)
	if err != nil {
		b.reply(c.id, "❌ "+validationMessage(err))
		return
	}

	b.reply(c.id, fmt.Sprintf("➕ Added %s <b>%s</b>", step.Icon, escape(step.Title)))
	b.handleToday(ctx, c, msg)
}

func (b *Bot) handleToday(_ context.Context, c *chat, _ *tgbotapi.Message) {
	session := c.currentSession()
	if session == nil {
		b.reply(c.id, msgSignInRequired)
		return
	}

	session.Rollover()
	snap := session.Snapshot()
	if len(snap.Steps) == 0 {
		b.reply(c.id, msgNoSteps)
		return
	}

	out := tgbotapi.NewMessage(c.id, renderToday(snap, session.Progress()))
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = todayKeyboard(snap.Steps)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn("⚠️ Ошибка отправки списка", zap.Int64("chat_id", c.id), zap.Error(err))
	}
}

func (b *Bot) handleReset(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	session := c.currentSession()
	if session == nil {
		b.reply(c.id, msgSignInRequired)
		return
	}

	session.ResetAll()
	b.reply(c.id, msgReset)
	b.handleToday(ctx, c, msg)
}

func (b *Bot) handleHistory(_ context.Context, c *chat, _ *tgbotapi.Message) {
	session := c.currentSession()
	if session == nil {
		b.reply(c.id, msgSignInRequired)
		return
	}

	session.Rollover()
	b.reply(c.id, services.FormatHistory(session.Snapshot().History, historyLimit))
}

func (b *Bot) handleStarter(ctx context.Context, c *chat, msg *tgbotapi.Message) {
	session := c.currentSession()
	if session == nil {
		b.reply(c.id, msgSignInRequired)
		return
	}

	added, err := session.AddStarterRoutine()
	if err != nil {
		b.logger.Error("❌ Ошибка создания стартовой рутины", zap.Int64("chat_id", c.id), zap.Error(err))
		b.reply(c.id, "❌ Could not add the starter routine")
		return
	}
	if len(added) == 0 {
		b.reply(c.id, msgStarterSkipped)
		return
	}

	b.reply(c.id, fmt.Sprintf("🌱 Added %d starter steps", len(added)))
	b.handleToday(ctx, c, msg)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := "✅"
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, answer)); err != nil {
			b.logger.Warn("⚠️ Ошибка ответа на callback", zap.Error(err))
		}
	}()

	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}

	c := b.chat(ctx, callback.Message.Chat.ID)
	session := c.currentSession()
	if !c.gate.Authenticated() || session == nil {
		answer = "🔒 Sign in first"
		return
	}

	action, id, ok := parseCallback(callback.Data)
	if !ok {
		answer = "🤷"
		return
	}
	b.logger.Debug("Получен callback", zap.String("action", action), zap.String("step_id", id))

	var changed bool
	switch action {
	case actionToggle:
		_, changed = session.Toggle(id)
	case actionUp:
		changed = session.MoveUp(id)
	case actionDown:
		changed = session.MoveDown(id)
	case actionRemove:
		changed = session.Remove(id)
	}
	if !changed {
		answer = "Nothing to change"
		return
	}

	b.refreshToday(c.id, callback.Message.MessageID, session)
}

// refreshToday перерисовывает сообщение со списком после нажатия кнопки
func (b *Bot) refreshToday(chatID int64, messageID int, session *services.Session) {
	snap := session.Snapshot()
	if len(snap.Steps) == 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, msgNoSteps)
		edit.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(edit); err != nil {
			b.logger.Warn("⚠️ Ошибка обновления списка", zap.Error(err))
		}
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, renderToday(snap, session.Progress()), todayKeyboard(snap.Steps))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("⚠️ Ошибка обновления списка", zap.Error(err))
	}
}

// parseAddArgs "title words icon [#color]": цвет необязателен и стоит последним,
// иконка идет перед ним, все остальное название
func parseAddArgs(args string) (title, icon, color string, err error) {
	fields := strings.Fields(args)
	if n := len(fields); n > 0 && utils.IsColorToken(fields[n-1]) {
		color = utils.NormalizeColor(fields[n-1])
		fields = fields[:n-1]
	}
	if len(fields) < 2 {
		return "", "", "", errAddUsage
	}

	icon = fields[len(fields)-1]
	title = strings.Join(fields[:len(fields)-1], " ")
	return title, icon, color, nil
}

func parseCredentials(args string) (email, password string, ok bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, routine.ErrEmptyTitle):
		return "Title must not be empty"
	case errors.Is(err, routine.ErrEmptyIcon):
		return "Icon must not be empty"
	case errors.Is(err, routine.ErrIconTooLong):
		return fmt.Sprintf("Icon must be at most %d characters", routine.MaxIconLength)
	default:
		return escape(err.Error())
	}
}
