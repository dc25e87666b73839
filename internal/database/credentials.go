package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// CredentialRepository учетные записи и сохраненные сессии клиентов
type CredentialRepository struct {
	Db *Database
}

func NewCredentialRepository(db *Database) *CredentialRepository {
	return &CredentialRepository{Db: db}
}

func (r *CredentialRepository) CreateUser(ctx context.Context, user UserRecord) error {
	_, err := r.Db.db.ExecContext(ctx, `
		INSERT INTO auth_users (uid, email, password_hash)
		VALUES (?, ?, ?)
	`, user.UID, strings.ToLower(user.Email), user.PasswordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *CredentialRepository) UserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return r.queryUser(ctx, `WHERE email = ?`, strings.ToLower(email))
}

func (r *CredentialRepository) UserByUID(ctx context.Context, uid string) (*UserRecord, error) {
	return r.queryUser(ctx, `WHERE uid = ?`, uid)
}

func (r *CredentialRepository) queryUser(ctx context.Context, where string, arg any) (*UserRecord, error) {
	var user UserRecord
	err := r.Db.db.QueryRowContext(ctx, `
		SELECT uid, email, password_hash, created_at
		FROM auth_users `+where, arg,
	).Scan(&user.UID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	return &user, nil
}

// SaveSession запоминает, под каким пользователем вошел клиент
func (r *CredentialRepository) SaveSession(ctx context.Context, clientID, uid string) error {
	_, err := r.Db.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (client_id, uid)
		VALUES (?, ?)
		ON CONFLICT(client_id) DO UPDATE SET uid = excluded.uid, created_at = CURRENT_TIMESTAMP
	`, clientID, uid)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// SessionUser возвращает пользователя сохраненной сессии клиента или ErrNotFound
func (r *CredentialRepository) SessionUser(ctx context.Context, clientID string) (*UserRecord, error) {
	var uid string
	err := r.Db.db.QueryRowContext(ctx,
		`SELECT uid FROM auth_sessions WHERE client_id = ?`, clientID,
	).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return r.UserByUID(ctx, uid)
}

func (r *CredentialRepository) DeleteSession(ctx context.Context, clientID string) error {
	if _, err := r.Db.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// SessionClients список клиентов с сохраненной сессией (восстановление после рестарта)
func (r *CredentialRepository) SessionClients(ctx context.Context) ([]string, error) {
	rows, err := r.Db.db.QueryContext(ctx, `SELECT client_id FROM auth_sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var clients []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		clients = append(clients, id)
	}
	return clients, rows.Err()
}
