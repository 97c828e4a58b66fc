package memory

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
)

func repositoriesFor(s *Store, t *tx) repository.Repositories {
	return repository.Repositories{
		Tickets:       &ticketRepository{store: s, tx: t},
		History:       &historyRepository{store: s, tx: t},
		Messages:      &messageRepository{store: s, tx: t},
		Notifications: &notificationRepository{store: s, tx: t},
		Users:         &userRepository{store: s, tx: t},
	}
}

type ticketRepository struct {
	store *Store
	tx    *tx
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		if _, exists := t.ticket(ticket.ID); exists {
			return errDuplicate("ticket", ticket.ID)
		}
		t.tickets[ticket.ID] = cloneTicket(*ticket)
		return nil
	})
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		current, ok := t.ticket(ticket.ID)
		if !ok {
			return repository.ErrNotFound
		}
		current.AssignedTo = cloneString(ticket.AssignedTo)
		current.Status = ticket.Status
		current.ResolvedAt = cloneTime(ticket.ResolvedAt)
		current.Title = ticket.Title
		current.Description = ticket.Description
		current.UpdatedAt = ticket.UpdatedAt
		t.tickets[ticket.ID] = current
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		ticket, ok := t.ticket(id)
		if !ok {
			return repository.ErrNotFound
		}
		c := cloneTicket(ticket)
		out = &c
		return nil
	})
	return out, err
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		t.lock(ticketKey(id))
		ticket, ok := t.ticket(id)
		if !ok {
			return repository.ErrNotFound
		}
		c := cloneTicket(ticket)
		out = &c
		return nil
	})
	return out, err
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		matched := filterTickets(t.allTickets(), filter)
		// newest first
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		limit, offset := filter.Page()
		out = paginate(matched, limit, offset)
		return nil
	})
	return out, err
}

func (r *ticketRepository) Count(ctx context.Context, filter repository.TicketFilter) (int, error) {
	var count int
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		count = len(filterTickets(t.allTickets(), filter))
		return nil
	})
	return count, err
}

func (r *ticketRepository) ListQueue(ctx context.Context, filter repository.TicketFilter, now time.Time) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		matched := filterTickets(t.allTickets(), filter)
		domain.SortQueue(matched, now)
		limit, offset := filter.Page()
		out = paginate(matched, limit, offset)
		return nil
	})
	return out, err
}

func filterTickets(tickets []domain.Ticket, filter repository.TicketFilter) []domain.Ticket {
	out := tickets[:0]
	for i := range tickets {
		if filter.Matches(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

type historyRepository struct {
	store *Store
	tx    *tx
}

func (r *historyRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		t.history = append(t.history, *history)
		return nil
	})
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		for _, h := range t.allHistory() {
			if h.TicketID == ticketID {
				out = append(out, h)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r *historyRepository) Exists(ctx context.Context, ticketID, field, newValue string) (bool, error) {
	var found bool
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		for _, h := range t.allHistory() {
			if h.TicketID == ticketID && h.Field == field && h.NewValue == newValue {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

type messageRepository struct {
	store *Store
	tx    *tx
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		t.messages = append(t.messages, *msg)
		return nil
	})
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		for _, m := range t.allMessages() {
			if m.TicketID == ticketID {
				out = append(out, m)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

type notificationRepository struct {
	store *Store
	tx    *tx
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		if _, exists := t.notification(n.ID); exists {
			return errDuplicate("notification", n.ID)
		}
		t.notifications[n.ID] = cloneNotification(*n)
		t.outboxOrder = append(t.outboxOrder, n.ID)
		return nil
	})
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var out *domain.Notification
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		n, ok := t.notification(id)
		if !ok {
			return repository.ErrNotFound
		}
		c := cloneNotification(n)
		out = &c
		return nil
	})
	return out, err
}

func (r *notificationRepository) ClaimBatch(ctx context.Context, limit int, now time.Time, maxAttempts int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		candidates := t.allNotifications()
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		})
		for _, candidate := range candidates {
			if limit > 0 && len(out) >= limit {
				break
			}
			if !candidate.Deliverable(now, maxAttempts) {
				continue
			}
			key := notificationKey(candidate.ID)
			if !t.tryLock(key) {
				continue
			}
			// Another transaction may have delivered it between the scan and the lock.
			current, _ := t.notification(candidate.ID)
			if !current.Deliverable(now, maxAttempts) {
				t.unlock(key)
				continue
			}
			out = append(out, cloneNotification(current))
		}
		return nil
	})
	return out, err
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, func(n *domain.Notification) {
		n.Status = domain.NotificationStatusSent
		n.SentAt = &at
		n.LastError = ""
		n.NextAttemptAt = nil
	})
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt *time.Time) error {
	return r.update(ctx, id, func(n *domain.Notification) {
		n.Status = domain.NotificationStatusFailed
		n.Attempts++
		n.LastError = lastError
		n.NextAttemptAt = cloneTime(nextAttemptAt)
	})
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (time.Time, error) {
	var readAt time.Time
	err := r.update(ctx, id, func(n *domain.Notification) {
		if n.ReadAt == nil {
			n.ReadAt = &at
		}
		readAt = *n.ReadAt
	})
	return readAt, err
}

func (r *notificationRepository) update(ctx context.Context, id string, mutate func(n *domain.Notification)) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		t.lock(notificationKey(id))
		n, ok := t.notification(id)
		if !ok {
			return repository.ErrNotFound
		}
		n = cloneNotification(n)
		mutate(&n)
		t.notifications[id] = n
		return nil
	})
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		var matched []domain.Notification
		for _, n := range t.allNotifications() {
			if n.ToUserID == userID {
				matched = append(matched, n)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		out = paginate(matched, limit, offset)
		return nil
	})
	return out, err
}

type userRepository struct {
	store *Store
	tx    *tx
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.run(ctx, r.tx, func(t *tx) error {
		if _, exists := t.user(user.ID); exists {
			return errDuplicate("user", user.ID)
		}
		for _, existing := range t.allUsers() {
			if existing.Email == user.Email {
				return errDuplicate("user email", user.Email)
			}
		}
		t.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		u, ok := t.user(id)
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) ListActiveByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	err := r.store.run(ctx, r.tx, func(t *tx) error {
		for _, u := range t.allUsers() {
			if u.Active && u.Role == role {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssignedTo = cloneString(t.AssignedTo)
	t.DueAt = cloneTime(t.DueAt)
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	return t
}

func cloneNotification(n domain.Notification) domain.Notification {
	if n.Payload != nil {
		payload := make(map[string]any, len(n.Payload))
		for k, v := range n.Payload {
			payload[k] = v
		}
		n.Payload = payload
	}
	n.NextAttemptAt = cloneTime(n.NextAttemptAt)
	n.SentAt = cloneTime(n.SentAt)
	n.ReadAt = cloneTime(n.ReadAt)
	return n
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
