package service

import (
	"sort"
	"sync"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

type ticketEntry struct {
	mu     sync.Mutex
	ticket *domain.Ticket
	closed bool
}

// TicketRegistry holds open tickets in memory, keyed by conversation id.
// Each ticket has its own lock, held for the whole of an operation
// including the persistence calls it makes.
type TicketRegistry struct {
	mu      sync.RWMutex
	entries map[string]*ticketEntry
}

func NewTicketRegistry() *TicketRegistry {
	return &TicketRegistry{entries: make(map[string]*ticketEntry)}
}

// Open registers t. A creator may hold only one open ticket.
func (r *TicketRegistry) Open(t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[t.ID]; exists {
		return apperrors.NewConflict("ticket already exists", map[string]any{"ticket_id": t.ID})
	}
	for _, e := range r.entries {
		if e.ticket.CreatorID == t.CreatorID {
			return domain.ErrTicketAlreadyOpen.Withf("you already have an open ticket: %s", e.ticket.ID)
		}
	}
	r.entries[t.ID] = &ticketEntry{ticket: t.Clone()}
	return nil
}

func (r *TicketRegistry) entry(id string) (*ticketEntry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return e, nil
}

// Get returns a copy of the ticket.
func (r *TicketRegistry) Get(id string) (*domain.Ticket, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return e.ticket.Clone(), nil
}

// Mutate runs fn on a working copy of the ticket while holding its lock.
// The copy replaces the stored ticket only when fn succeeds.
func (r *TicketRegistry) Mutate(id string, fn func(t *domain.Ticket) error) (*domain.Ticket, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	working := e.ticket.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.ticket = working
	return working.Clone(), nil
}

// Close removes the ticket after check approves it. Operations already
// waiting on the ticket lock see it as gone.
func (r *TicketRegistry) Close(id string, check func(t *domain.Ticket) error) (*domain.Ticket, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if err := check(e.ticket); err != nil {
		return nil, err
	}
	e.closed = true
	e.ticket.Status = domain.TicketStatusClosed

	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return e.ticket.Clone(), nil
}

// List returns copies of every open ticket ordered by opening time.
func (r *TicketRegistry) List() []*domain.Ticket {
	r.mu.RLock()
	entries := make([]*ticketEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]*domain.Ticket, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			out = append(out, e.ticket.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
