package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spec-kit/ticket-workflow/internal/domain"
)

const notificationColumns = `id, to_user_id, event, payload, status, attempts, last_error,
               next_attempt_at, sent_at, read_at, created_at`

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository constructs the outbox repository.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notification_outbox (id, to_user_id, event, payload, status, attempts, last_error,
               next_attempt_at, sent_at, read_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.ToUserID,
		n.Event,
		payload,
		n.Status,
		n.Attempts,
		n.LastError,
		n.NextAttemptAt,
		n.SentAt,
		n.ReadAt,
		n.CreatedAt,
	)
	return err
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification_outbox WHERE id=$1`
	n, err := scanNotification(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return n, nil
}

func (r *notificationRepository) ClaimBatch(ctx context.Context, limit int, now time.Time, maxAttempts int) ([]domain.Notification, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "NotificationRepository.ClaimBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("outbox.limit", limit))

	query := `SELECT ` + notificationColumns + ` FROM notification_outbox
             WHERE status='pending'
                OR (status='failed'
                    AND ($2 <= 0 OR attempts < $2)
                    AND (next_attempt_at IS NULL OR next_attempt_at <= $3))
             ORDER BY created_at ASC
             LIMIT $1
             FOR UPDATE SKIP LOCKED`
	rows, err := r.db.Query(ctx, query, limit, maxAttempts, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	span.SetAttributes(attribute.Int("outbox.claimed", len(result)))
	return result, rows.Err()
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE notification_outbox SET status='sent', sent_at=$1, last_error='', next_attempt_at=NULL
        WHERE id=$2`
	return r.exec(ctx, query, at, id)
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt *time.Time) error {
	const query = `
        UPDATE notification_outbox SET status='failed', attempts=attempts+1, last_error=$1, next_attempt_at=$2
        WHERE id=$3`
	return r.exec(ctx, query, lastError, nextAttemptAt, id)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (time.Time, error) {
	const query = `
        UPDATE notification_outbox SET read_at=COALESCE(read_at, $1)
        WHERE id=$2
        RETURNING read_at`
	var readAt time.Time
	if err := r.db.QueryRow(ctx, query, at, id).Scan(&readAt); err != nil {
		return time.Time{}, translate(err)
	}
	return readAt, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification_outbox
             WHERE to_user_id=$1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(
		&n.ID,
		&n.ToUserID,
		&n.Event,
		&n.Payload,
		&n.Status,
		&n.Attempts,
		&n.LastError,
		&n.NextAttemptAt,
		&n.SentAt,
		&n.ReadAt,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
