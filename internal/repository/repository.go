package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/ticket-workflow/internal/domain"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate reads the ticket and holds an exclusive row lock on it until
	// the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Count ignores the filter's pagination.
	Count(ctx context.Context, filter TicketFilter) (int, error)
	// ListQueue returns filtered tickets in agent work-queue order.
	ListQueue(ctx context.Context, filter TicketFilter, now time.Time) ([]domain.Ticket, error)
}

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
	Exists(ctx context.Context, ticketID, field, newValue string) (bool, error)
}

// TicketMessageRepository manages ticket conversation entries.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

// NotificationRepository manages the notification outbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ClaimBatch locks up to limit deliverable entries, oldest first, skipping
	// rows already locked by another transaction.
	ClaimBatch(ctx context.Context, limit int, now time.Time, maxAttempts int) ([]domain.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt *time.Time) error
	// MarkRead stamps read_at unless it is already set and returns the stored value.
	MarkRead(ctx context.Context, id string, at time.Time) (time.Time, error)
	ListByRecipient(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
}

// UserRepository defines access to users as seen by the workflow.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListActiveByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Tickets       TicketRepository
	History       TicketHistoryRepository
	Messages      TicketMessageRepository
	Notifications NotificationRepository
	Users         UserRepository
}

// TxManager runs fn inside a single transaction. fn's error rolls the
// transaction back and is returned unchanged.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is the durable source of truth: transactional access plus
// autocommit repositories for plain reads.
type Store interface {
	TxManager
	Repos() Repositories
}
