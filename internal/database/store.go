package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

// sqlxStore provides an implementation of conversation.Store using sqlx.
type sqlxStore struct {
	db          *sqlx.DB
	logger      *slog.Logger
	maxMessages int
	now         func() time.Time
}

var (
	_ conversation.Store      = (*sqlxStore)(nil)
	_ conversation.Maintainer = (*sqlxStore)(nil)
)

// NewStore creates a conversation store backed by sqlx. It requires a connected
// and migrated sqlx.DB. maxMessages bounds each history (0 means unbounded).
func NewStore(db *sqlx.DB, maxMessages int, logger *slog.Logger) conversation.Store {
	return newStore(db, maxMessages, time.Now, logger)
}

func newStore(db *sqlx.DB, maxMessages int, now func() time.Time, logger *slog.Logger) *sqlxStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:          db,
		logger:      logger.With("component", "store"),
		maxMessages: maxMessages,
		now:         now,
	}
}

// touch creates the conversation header if needed and marks it active.
// created_at is only set on insert.
func (s *sqlxStore) touch(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	now := s.now().UnixNano()
	row := conversationRow{UserID: userID, CreatedAt: now, LastActive: now}
	_, err := tx.NamedExecContext(ctx, `
        INSERT INTO conversations (user_id, created_at, last_active)
        VALUES (:user_id, :created_at, :last_active)
        ON CONFLICT (user_id) DO UPDATE SET last_active = excluded.last_active;
    `, row)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation for user %d: %w", userID, err)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back unless fn succeeds and the commit goes through.
func (s *sqlxStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "operation", op, "error", err)
		return apperrors.NewStoreError(op+": failed to begin transaction", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "operation", op, "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		s.logger.ErrorContext(ctx, "Store operation failed", "operation", op, "error", err)
		return apperrors.NewStoreError(op+" failed", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "operation", op, "error", err)
		return apperrors.NewStoreError(op+": failed to commit transaction", err)
	}
	tx = nil
	return nil
}

func (s *sqlxStore) Get(ctx context.Context, userID int64) ([]conversation.Message, error) {
	var rows []messageRow
	err := s.withTx(ctx, "get history", func(tx *sqlx.Tx) error {
		if err := s.touch(ctx, tx, userID); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &rows, `
            SELECT id, user_id, role, content, created_at
            FROM conversation_messages
            WHERE user_id = ?
            ORDER BY id ASC;
        `, userID)
	})
	if err != nil {
		return nil, err
	}

	history := make([]conversation.Message, 0, len(rows))
	for _, r := range rows {
		history = append(history, conversation.Message{Role: conversation.Role(r.Role), Content: r.Content})
	}
	return history, nil
}

func (s *sqlxStore) Append(ctx context.Context, userID int64, msg conversation.Message) error {
	return s.withTx(ctx, "append message", func(tx *sqlx.Tx) error {
		if err := s.touch(ctx, tx, userID); err != nil {
			return err
		}

		row := messageRow{
			UserID:    userID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: s.now().UnixNano(),
		}
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO conversation_messages (user_id, role, content, created_at)
            VALUES (:user_id, :role, :content, :created_at);
        `, row); err != nil {
			return fmt.Errorf("failed to insert message for user %d: %w", userID, err)
		}

		return s.trim(ctx, tx, userID)
	})
}

// trim applies the same bound as conversation.Trim: keep the newest maxMessages
// rows, then drop assistant rows that precede the first remaining user row.
func (s *sqlxStore) trim(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	if s.maxMessages <= 0 {
		return nil
	}

	res, err := tx.ExecContext(ctx, `
        DELETE FROM conversation_messages
        WHERE user_id = ? AND id NOT IN (
            SELECT id FROM conversation_messages WHERE user_id = ? ORDER BY id DESC LIMIT ?
        );
    `, userID, userID, s.maxMessages)
	if err != nil {
		return fmt.Errorf("failed to trim history for user %d: %w", userID, err)
	}
	dropped, err := res.RowsAffected()
	if err != nil || dropped == 0 {
		return nil
	}

	res, err = tx.ExecContext(ctx, `
        DELETE FROM conversation_messages
        WHERE user_id = ? AND role = 'assistant' AND id < COALESCE(
            (SELECT MIN(id) FROM conversation_messages WHERE user_id = ? AND role = 'user'),
            (SELECT MAX(id) + 1 FROM conversation_messages WHERE user_id = ?)
        );
    `, userID, userID, userID)
	if err != nil {
		return fmt.Errorf("failed to drop leading assistant messages for user %d: %w", userID, err)
	}
	if extra, err := res.RowsAffected(); err == nil {
		dropped += extra
	}

	s.logger.DebugContext(ctx, "Trimmed conversation history", "user_id", userID, "dropped", dropped)
	return nil
}

func (s *sqlxStore) Reset(ctx context.Context, userID int64) error {
	return s.withTx(ctx, "reset history", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_messages WHERE user_id = ?;`, userID); err != nil {
			return fmt.Errorf("failed to delete messages for user %d: %w", userID, err)
		}
		return s.touch(ctx, tx, userID)
	})
}

func (s *sqlxStore) Expire(ctx context.Context, idleSince time.Time) (int, error) {
	cutoff := idleSince.UnixNano()
	var removed int64

	err := s.withTx(ctx, "expire conversations", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
            DELETE FROM conversation_messages
            WHERE user_id IN (SELECT user_id FROM conversations WHERE last_active < ?);
        `, cutoff); err != nil {
			return fmt.Errorf("failed to delete idle messages: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE last_active < ?;`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete idle conversations: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.DebugContext(ctx, "Expired idle conversations", "count", removed)
	}
	return int(removed), nil
}

// Maintain runs PRAGMA optimize and VACUUM. VACUUM cannot run inside a transaction.
func (s *sqlxStore) Maintain(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (optimize, VACUUM)...")
	startTime := time.Now()

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.ErrorContext(ctx, "PRAGMA optimize failed", "error", err)
		return apperrors.NewStoreError("failed to execute PRAGMA optimize", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
			return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
		}
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return apperrors.NewStoreError("failed to execute VACUUM", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully", "duration", time.Since(startTime))
	return nil
}
