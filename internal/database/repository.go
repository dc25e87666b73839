package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository иерархическое хранилище документов поверх таблицы documents.
// Записи через upsert, удаления идемпотентны.
type Repository struct {
	Db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{Db: db}
}

func (r *Repository) GetDocument(ctx context.Context, path string) (*Document, error) {
	collection, id, err := splitDocumentPath(path)
	if err != nil {
		return nil, err
	}

	var (
		doc = Document{ID: id, Collection: collection}
		raw string
	)
	err = r.Db.db.QueryRowContext(ctx, `
		SELECT fields, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id).Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}

	if doc.Fields, err = decodeFields(raw); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", path, err)
	}
	return &doc, nil
}

// ListCollection возвращает документы коллекции в порядке создания
func (r *Repository) ListCollection(ctx context.Context, path string) ([]Document, error) {
	if err := checkCollectionPath(path); err != nil {
		return nil, err
	}

	rows, err := r.Db.db.QueryContext(ctx, `
		SELECT id, fields, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY rowid
	`, path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc := Document{Collection: path}
		var raw string
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		if doc.Fields, err = decodeFields(raw); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", path, doc.ID, err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// SetDocument создает или обновляет документ. При merge поля сливаются
// с существующими (поверхностно), иначе документ перезаписывается.
func (r *Repository) SetDocument(ctx context.Context, path string, fields Fields, merge bool) error {
	collection, id, err := splitDocumentPath(path)
	if err != nil {
		return err
	}

	tx, err := r.Db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	next := Fields{}
	if merge {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
			collection, id,
		).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("reading document %s: %w", path, err)
		default:
			if next, err = decodeFields(raw); err != nil {
				return fmt.Errorf("decoding document %s: %w", path, err)
			}
		}
	}
	for k, v := range fields {
		next[k] = v
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", path, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields)
		VALUES (?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			fields = excluded.fields,
			updated_at = CURRENT_TIMESTAMP
	`, collection, id, string(encoded))
	if err != nil {
		return fmt.Errorf("writing document %s: %w", path, err)
	}

	return tx.Commit()
}

// AddDocument создает документ со сгенерированным id
func (r *Repository) AddDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := checkCollectionPath(collection); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := r.SetDocument(ctx, Path(collection, id), fields, false); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteDocument отсутствие документа не ошибка
func (r *Repository) DeleteDocument(ctx context.Context, path string) error {
	collection, id, err := splitDocumentPath(path)
	if err != nil {
		return err
	}

	_, err = r.Db.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", path, err)
	}
	return nil
}

// DeleteCollection удаляет все документы коллекции (без вложенных)
func (r *Repository) DeleteCollection(ctx context.Context, path string) error {
	if err := checkCollectionPath(path); err != nil {
		return err
	}

	if _, err := r.Db.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, path); err != nil {
		return fmt.Errorf("deleting collection %s: %w", path, err)
	}
	return nil
}

func decodeFields(raw string) (Fields, error) {
	fields := Fields{}
	if raw == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
