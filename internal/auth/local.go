package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"daily-routine/internal/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength минимальная длина пароля при регистрации
const MinPasswordLength = 6

// CredentialStore учетные записи и сохраненные сессии (database.CredentialRepository)
type CredentialStore interface {
	CreateUser(ctx context.Context, user database.UserRecord) error
	UserByEmail(ctx context.Context, email string) (*database.UserRecord, error)
	SaveSession(ctx context.Context, clientID, uid string) error
	SessionUser(ctx context.Context, clientID string) (*database.UserRecord, error)
	DeleteSession(ctx context.Context, clientID string) error
}

// Bcrypt хеширование паролей
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Sign(pass string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	token, err := bcrypt.GenerateFromPassword([]byte(pass), cost)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func (b Bcrypt) Verify(token, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(token), []byte(pass))
}

// LocalProvider провайдер идентификации одного клиента (одного чата)
// поверх общей таблицы учетных записей
type LocalProvider struct {
	store    CredentialStore
	clientID string
	hasher   Bcrypt
	logger   *zap.Logger

	mu        sync.Mutex
	current   *Identity
	listeners listeners[*Identity]
}

func NewLocalProvider(store CredentialStore, clientID string, hasher Bcrypt, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{
		store:    store,
		clientID: clientID,
		hasher:   hasher,
		logger:   logger.With(zap.String("client", clientID)),
	}
}

func (p *LocalProvider) SubscribeToSessionChanges(callback func(*Identity)) func() {
	return p.listeners.add(callback)
}

// Current текущий пользователь клиента или nil
func (p *LocalProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// Restore восстанавливает сохраненную сессию и отправляет первое уведомление
func (p *LocalProvider) Restore(ctx context.Context) error {
	user, err := p.store.SessionUser(ctx, p.clientID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		p.setCurrent(nil)
		return nil
	case err != nil:
		p.setCurrent(nil)
		return &AuthError{Code: CodeInternal, Message: "Could not restore session.", Err: err}
	}

	p.logger.Info("🔑 Сессия восстановлена", zap.String("uid", user.UID))
	p.setCurrent(&Identity{UID: user.UID, Email: user.Email})
	return nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return Identity{}, &AuthError{Code: CodeInvalidEmail, Message: "Invalid email address."}
	}
	if len(password) < MinPasswordLength {
		return Identity{}, &AuthError{Code: CodeWeakPassword, Message: "Password should be at least 6 characters."}
	}

	hash, err := p.hasher.Sign(password)
	if err != nil {
		return Identity{}, &AuthError{Code: CodeInternal, Message: "Could not create account.", Err: err}
	}

	user := database.UserRecord{UID: uuid.NewString(), Email: strings.ToLower(email), PasswordHash: hash}
	if err := p.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return Identity{}, &AuthError{Code: CodeEmailAlreadyInUse, Message: "Email already in use.", Err: err}
		}
		return Identity{}, &AuthError{Code: CodeInternal, Message: "Could not create account.", Err: err}
	}

	identity := Identity{UID: user.UID, Email: user.Email}
	if err := p.startSession(ctx, identity); err != nil {
		return Identity{}, err
	}
	p.logger.Info("🆕 Пользователь зарегистрирован", zap.String("uid", identity.UID))
	return identity, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	invalid := &AuthError{Code: CodeInvalidCredential, Message: "Invalid email or password."}

	user, err := p.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrNotFound) {
		return Identity{}, invalid
	}
	if err != nil {
		return Identity{}, &AuthError{Code: CodeInternal, Message: "Could not sign in.", Err: err}
	}
	if err := p.hasher.Verify(user.PasswordHash, password); err != nil {
		invalid.Err = err
		return Identity{}, invalid
	}

	identity := Identity{UID: user.UID, Email: user.Email}
	if err := p.startSession(ctx, identity); err != nil {
		return Identity{}, err
	}
	p.logger.Info("🔓 Вход выполнен", zap.String("uid", identity.UID))
	return identity, nil
}

// SignOut локально выход происходит всегда; ошибка удаления сессии возвращается
func (p *LocalProvider) SignOut(ctx context.Context) error {
	err := p.store.DeleteSession(ctx, p.clientID)
	p.setCurrent(nil)
	p.logger.Info("🔒 Выход выполнен")
	if err != nil {
		return &AuthError{Code: CodeInternal, Message: "Could not sign out cleanly.", Err: err}
	}
	return nil
}

func (p *LocalProvider) startSession(ctx context.Context, identity Identity) error {
	if err := p.store.SaveSession(ctx, p.clientID, identity.UID); err != nil {
		return &AuthError{Code: CodeInternal, Message: "Could not start session.", Err: err}
	}
	p.setCurrent(&identity)
	return nil
}

func (p *LocalProvider) setCurrent(identity *Identity) {
	p.mu.Lock()
	p.current = identity
	p.mu.Unlock()

	var notified *Identity
	if identity != nil {
		id := *identity
		notified = &id
	}
	p.listeners.notify(notified)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}
