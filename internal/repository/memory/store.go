// Package memory is an in-process implementation of repository.Store. It keeps
// the transactional guarantees of the Postgres store: row locks held until the
// transaction ends, skip-locked batch claims and read-committed visibility.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
)

// Store holds committed state.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	tickets       map[string]domain.Ticket
	history       []domain.TicketHistory
	messages      []domain.TicketMessage
	notifications map[string]domain.Notification
	outboxOrder   []string
	users         map[string]domain.User
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		locks:         make(map[string]*sync.Mutex),
		tickets:       make(map[string]domain.Ticket),
		notifications: make(map[string]domain.Notification),
		users:         make(map[string]domain.User),
	}
}

// WithinTx runs fn against a private write set that becomes visible to other
// transactions only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.begin()
	defer t.release()

	if err := fn(ctx, t.repositories()); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Repos returns repositories where every call commits on its own.
func (s *Store) Repos() repository.Repositories {
	return repositoriesFor(s, nil)
}

func (s *Store) begin() *tx {
	return &tx{
		store:         s,
		held:          make(map[string]*sync.Mutex),
		tickets:       make(map[string]domain.Ticket),
		notifications: make(map[string]domain.Notification),
		users:         make(map[string]domain.User),
	}
}

// run executes fn in t, or in a fresh single-statement transaction when t is nil.
func (s *Store) run(ctx context.Context, t *tx, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t != nil {
		return fn(t)
	}
	t = s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// tx is a write set plus the row locks it holds.
type tx struct {
	store *Store
	held  map[string]*sync.Mutex

	tickets       map[string]domain.Ticket
	history       []domain.TicketHistory
	messages      []domain.TicketMessage
	notifications map[string]domain.Notification
	outboxOrder   []string
	users         map[string]domain.User
}

func (t *tx) repositories() repository.Repositories {
	return repositoriesFor(t.store, t)
}

func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	m := t.store.rowLock(key)
	m.Lock()
	t.held[key] = m
}

func (t *tx) tryLock(key string) bool {
	if _, ok := t.held[key]; ok {
		return true
	}
	m := t.store.rowLock(key)
	if !m.TryLock() {
		return false
	}
	t.held[key] = m
	return true
}

func (t *tx) unlock(key string) {
	if m, ok := t.held[key]; ok {
		delete(t.held, key)
		m.Unlock()
	}
}

func (t *tx) release() {
	for key, m := range t.held {
		delete(t.held, key)
		m.Unlock()
	}
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ticket := range t.tickets {
		s.tickets[id] = ticket
	}
	s.history = append(s.history, t.history...)
	s.messages = append(s.messages, t.messages...)
	for id, n := range t.notifications {
		s.notifications[id] = n
	}
	s.outboxOrder = append(s.outboxOrder, t.outboxOrder...)
	for id, u := range t.users {
		s.users[id] = u
	}
}

func (t *tx) ticket(id string) (domain.Ticket, bool) {
	if ticket, ok := t.tickets[id]; ok {
		return ticket, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	ticket, ok := t.store.tickets[id]
	return ticket, ok
}

func (t *tx) allTickets() []domain.Ticket {
	t.store.mu.Lock()
	merged := make(map[string]domain.Ticket, len(t.store.tickets)+len(t.tickets))
	for id, ticket := range t.store.tickets {
		merged[id] = ticket
	}
	t.store.mu.Unlock()
	for id, ticket := range t.tickets {
		merged[id] = ticket
	}

	out := make([]domain.Ticket, 0, len(merged))
	for _, ticket := range merged {
		out = append(out, cloneTicket(ticket))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (t *tx) allHistory() []domain.TicketHistory {
	t.store.mu.Lock()
	out := make([]domain.TicketHistory, 0, len(t.store.history)+len(t.history))
	out = append(out, t.store.history...)
	t.store.mu.Unlock()
	return append(out, t.history...)
}

func (t *tx) allMessages() []domain.TicketMessage {
	t.store.mu.Lock()
	out := make([]domain.TicketMessage, 0, len(t.store.messages)+len(t.messages))
	out = append(out, t.store.messages...)
	t.store.mu.Unlock()
	return append(out, t.messages...)
}

func (t *tx) notification(id string) (domain.Notification, bool) {
	if n, ok := t.notifications[id]; ok {
		return n, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	n, ok := t.store.notifications[id]
	return n, ok
}

// allNotifications returns entries in insertion order.
func (t *tx) allNotifications() []domain.Notification {
	t.store.mu.Lock()
	order := make([]string, 0, len(t.store.outboxOrder)+len(t.outboxOrder))
	order = append(order, t.store.outboxOrder...)
	committed := make(map[string]domain.Notification, len(t.store.notifications))
	for id, n := range t.store.notifications {
		committed[id] = n
	}
	t.store.mu.Unlock()
	order = append(order, t.outboxOrder...)

	out := make([]domain.Notification, 0, len(order))
	for _, id := range order {
		n, ok := t.notifications[id]
		if !ok {
			n = committed[id]
		}
		out = append(out, cloneNotification(n))
	}
	return out
}

func (t *tx) user(id string) (domain.User, bool) {
	if u, ok := t.users[id]; ok {
		return u, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	u, ok := t.store.users[id]
	return u, ok
}

func (t *tx) allUsers() []domain.User {
	t.store.mu.Lock()
	merged := make(map[string]domain.User, len(t.store.users)+len(t.users))
	for id, u := range t.store.users {
		merged[id] = u
	}
	t.store.mu.Unlock()
	for id, u := range t.users {
		merged[id] = u
	}

	out := make([]domain.User, 0, len(merged))
	for _, u := range merged {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func ticketKey(id string) string { return "ticket:" + id }
func notificationKey(id string) string { return "notification:" + id }

func errDuplicate(kind, key string) error {
	return fmt.Errorf("%w: %s %s", repository.ErrDuplicate, kind, key)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
