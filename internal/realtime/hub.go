package realtime

import (
	"context"
	"slices"
	"sync"

	"github.com/galeriaarte/galeria-server/internal/logger"
)

// AllTables subscribes to changes on every table.
const AllTables = "*"

// Handler receives changes. Handlers run on the publishing goroutine and
// must not block for long.
type Handler func(Change)

// Source produces changes until ctx is done.
type Source interface {
	Listen(ctx context.Context, fn func(Change)) error
}

// Hub routes changes to subscribers by table. Changes are delivered to each
// subscriber in publish order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*Subscription
	nextID uint64
	logger *logger.Logger
}

// Subscription is a registered handler. Call Unsubscribe to release it.
type Subscription struct {
	hub   *Hub
	table string
	id    uint64
	fn    Handler
	once  sync.Once
}

// NewHub creates an empty Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[uint64]*Subscription),
		logger: log,
	}
}

// Subscribe registers fn for changes on table, or on every table when
// table is AllTables.
func (h *Hub) Subscribe(table string, fn Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{hub: h, table: table, id: h.nextID, fn: fn}
	if h.subs[table] == nil {
		h.subs[table] = make(map[uint64]*Subscription)
	}
	h.subs[table][sub.id] = sub
	return sub
}

// Unsubscribe stops delivery to the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[s.table], s.id)
		if len(h.subs[s.table]) == 0 {
			delete(h.subs, s.table)
		}
	})
}

// Subscribers returns the number of live subscriptions on table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

// Publish delivers c to the subscribers of its table, then to wildcard
// subscribers, each group in subscription order.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	targets := collect(h.subs[c.Table])
	targets = append(targets, collect(h.subs[AllTables])...)
	h.mu.RUnlock()

	for _, sub := range targets {
		h.deliver(sub, c)
	}
}

// Run feeds changes from src into the hub until ctx is done.
func (h *Hub) Run(ctx context.Context, src Source) error {
	return src.Listen(ctx, h.Publish)
}

func (h *Hub) deliver(sub *Subscription, c Change) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("realtime handler panicked",
				"table", c.Table,
				"type", c.Type,
				"panic", r,
			)
		}
	}()
	sub.fn(c)
}

func collect(m map[uint64]*Subscription) []*Subscription {
	out := make([]*Subscription, 0, len(m))
	for _, sub := range m {
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b *Subscription) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}
