package database

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid document path")
	ErrEmailTaken  = errors.New("email already registered")
)

// Fields поля документа (JSON-объект); числа после чтения имеют тип float64
type Fields map[string]any

type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Fields     Fields    `json:"fields"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Path полный путь документа
func (d Document) Path() string {
	return d.Collection + "/" + d.ID
}

// UserRecord учетная запись локального провайдера идентификации
type UserRecord struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Path собирает путь из сегментов: Path("users", uid, date) -> "users/uid/date"
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitSegments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// splitDocumentPath документ адресуется четным числом сегментов
func splitDocumentPath(path string) (collection, id string, err error) {
	segments, err := splitSegments(path)
	if err != nil {
		return "", "", err
	}
	if len(segments)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	last := len(segments) - 1
	return strings.Join(segments[:last], "/"), segments[last], nil
}

// checkCollectionPath коллекция адресуется нечетным числом сегментов
func checkCollectionPath(path string) error {
	segments, err := splitSegments(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}
