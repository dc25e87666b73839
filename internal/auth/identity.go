// Package auth оборачивает провайдер идентификации: вход, регистрация,
// выход и push-уведомления о смене сессии, а также Gate, который
// по этим уведомлениям открывает или закрывает доступ к данным рутины.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Identity пользователь, вошедший в систему
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Provider внешний провайдер идентификации одного клиента
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	// SubscribeToSessionChanges callback получает текущего пользователя или nil
	SubscribeToSessionChanges(callback func(*Identity)) (unsubscribe func())
}

const providerPrefix = "local-auth: "

const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInternal          = "auth/internal-error"
)

// AuthError ошибка входа/регистрации с человекочитаемым сообщением
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s%s (%s)", providerPrefix, e.Message, e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DisplayMessage текст ошибки для пользователя без префикса провайдера
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return strings.TrimPrefix(err.Error(), providerPrefix)
}

// IsCode проверяет код AuthError
func IsCode(err error, code string) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}
