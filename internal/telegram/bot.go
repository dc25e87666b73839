package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"daily-routine/internal/auth"
	"daily-routine/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const sessionLoadTimeout = 15 * time.Second

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CredentialStore учетные записи плюс список чатов с сохраненной сессией
type CredentialStore interface {
	auth.CredentialStore
	SessionClients(ctx context.Context) ([]string, error)
}

type Bot struct {
	api         botAPI
	username    string
	credentials CredentialStore
	services    *services.ServiceManager
	hasher      auth.Bcrypt
	location    *time.Location
	logger      *zap.Logger
	handlers    map[string]commandHandler

	mu    sync.Mutex
	chats map[int64]*chat
}

type commandHandler struct {
	run       func(ctx context.Context, c *chat, msg *tgbotapi.Message)
	protected bool
}

// chat состояние одного чата: свой провайдер, свой gate и сессия рутины,
// пока пользователь вошел
type chat struct {
	id       int64
	provider *auth.LocalProvider
	gate     *auth.Gate

	mu          sync.Mutex
	session     *services.Session
	unsubscribe func()
}

func NewBot(token string, credentials CredentialStore, serviceManager *services.ServiceManager, hasher auth.Bcrypt, location *time.Location, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}
	return newBot(api, api.Self.UserName, credentials, serviceManager, hasher, location, logger), nil
}

func newBot(api botAPI, username string, credentials CredentialStore, serviceManager *services.ServiceManager, hasher auth.Bcrypt, location *time.Location, logger *zap.Logger) *Bot {
	if location == nil {
		location = time.UTC
	}
	bot := &Bot{
		api:         api,
		username:    username,
		credentials: credentials,
		services:    serviceManager,
		hasher:      hasher,
		location:    location,
		logger:      logger,
		chats:       make(map[int64]*chat),
	}

	bot.registerHandlers()
	logger.Info("🤖 Бот инициализирован", zap.String("username", username))
	return bot
}

func (b *Bot) registerHandlers() {
	b.handlers = map[string]commandHandler{
		"start":   {run: b.handleStart},
		"help":    {run: b.handleHelp},
		"signup":  {run: b.handleSignUp},
		"login":   {run: b.handleLogin},
		"logout":  {run: b.handleLogout, protected: true},
		"whoami":  {run: b.handleWhoAmI},
		"add":     {run: b.handleAdd, protected: true},
		"today":   {run: b.handleToday, protected: true},
		"reset":   {run: b.handleReset, protected: true},
		"history": {run: b.handleHistory, protected: true},
		"starter": {run: b.handleStarter, protected: true},
	}
}

func (b *Bot) GetUsername() string {
	return b.username
}

// RestoreSessions поднимает чаты с сохраненными сессиями после рестарта,
// чтобы ежедневные итоги дошли и до тех, кто еще ничего не писал
func (b *Bot) RestoreSessions(ctx context.Context) error {
	clients, err := b.credentials.SessionClients(ctx)
	if err != nil {
		return fmt.Errorf("ошибка загрузки сессий: %w", err)
	}

	for _, client := range clients {
		chatID, err := strconv.ParseInt(client, 10, 64)
		if err != nil {
			b.logger.Warn("⚠️ Некорректный id клиента", zap.String("client", client))
			continue
		}
		b.chat(ctx, chatID)
	}

	b.logger.Info("🔑 Сессии восстановлены", zap.Int("chats", len(clients)))
	return nil
}

// chat возвращает состояние чата, создавая его при первом обращении.
// Подписка на gate регистрируется до Restore, поэтому первое
// уведомление провайдера не теряется.
func (b *Bot) chat(ctx context.Context, chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.chats[chatID]; ok {
		return c
	}

	clientID := strconv.FormatInt(chatID, 10)
	provider := auth.NewLocalProvider(b.credentials, clientID, b.hasher, b.logger)
	c := &chat{
		id:       chatID,
		provider: provider,
		gate:     auth.NewGate(provider),
	}
	c.unsubscribe = c.gate.Subscribe(func(state auth.State, identity *auth.Identity) {
		b.onAuthChange(c, state, identity)
	})
	b.chats[chatID] = c

	if err := provider.Restore(ctx); err != nil {
		b.logger.Warn("⚠️ Ошибка восстановления сессии",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	return c
}

// onAuthChange открывает сессию рутины при входе и уничтожает при выходе
func (b *Bot) onAuthChange(c *chat, state auth.State, identity *auth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state != auth.StateAuthenticated || identity == nil {
		if c.session != nil {
			c.session.Close()
			c.session = nil
		}
		return
	}

	if c.session != nil {
		if c.session.Identity().UID == identity.UID {
			return
		}
		c.session.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionLoadTimeout)
	defer cancel()
	c.session = b.services.OpenSession(ctx, *identity, strconv.FormatInt(c.id, 10))
}

func (c *chat) currentSession() *services.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *chat) close() {
	c.unsubscribe()
	c.gate.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
}

// SendMessageTo отправляет HTML-сообщение в чат клиента
func (b *Bot) SendMessageTo(clientID string, text string) error {
	chatID, err := strconv.ParseInt(clientID, 10, 64)
	if err != nil {
		return fmt.Errorf("некорректный id клиента %q: %w", clientID, err)
	}
	return b.SendMessage(chatID, text)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Close отписывает все чаты; сохраненные сессии остаются для следующего запуска
func (b *Bot) Close() {
	b.mu.Lock()
	chats := make([]*chat, 0, len(b.chats))
	for _, c := range b.chats {
		chats = append(chats, c)
	}
	b.chats = make(map[int64]*chat)
	b.mu.Unlock()

	for _, c := range chats {
		c.close()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	b.handleMessage(ctx, update.Message)
}

// handleMessage обрабатывает текстовые команды
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !msg.IsCommand() {
		return
	}

	c := b.chat(ctx, msg.Chat.ID)
	handler, exists := b.handlers[msg.Command()]
	if !exists {
		b.reply(c.id, msgUnknownCommand)
		return
	}

	if handler.protected && !c.gate.Authenticated() {
		b.reply(c.id, msgSignInRequired)
		return
	}

	b.logger.Debug("📨 Команда",
		zap.Int64("chat_id", c.id),
		zap.String("command", msg.Command()),
	)
	handler.run(ctx, c, msg)
}

// safeDeleteMessage удаляет сообщение, ошибки только логируются
func (b *Bot) safeDeleteMessage(chatID int64, messageID int) {
	resp, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	if err != nil {
		b.logger.Warn("⚠️ Ошибка при удалении сообщения",
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
		return
	}

	var deleted bool
	if resp != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &deleted); err != nil {
			b.logger.Debug("Не удалось декодировать ответ при удалении сообщения", zap.Error(err))
		}
	}
	if deleted {
		b.logger.Debug("🗑 Сообщение удалено", zap.Int("message_id", messageID))
	}
}
