package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Journal durably records ledger events. Append must be atomic: either the
// event is stored at ev.Seq or an error is returned. A journal that already
// holds ev.Seq returns an error wrapping ErrConcurrencyConflict.
type Journal interface {
	Append(ctx context.Context, ev Event) error
	Load(ctx context.Context) ([]Event, error)
}

// Ledger is the append-only event sequence that balances are derived from.
// Appends are serialized; readers work on snapshots taken under the lock.
type Ledger struct {
	mu      sync.RWMutex
	events  []Event
	byID    map[uuid.UUID]int
	journal Journal
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Ledger)

func WithJournal(j Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		byID: make(map[uuid.UUID]int),
		now:  time.Now,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open returns a ledger restored from its journal. Stored events are
// re-validated and must be numbered contiguously from 1.
func Open(ctx context.Context, opts ...Option) (*Ledger, error) {
	l := New(opts...)
	if l.journal == nil {
		return l, nil
	}

	if err := l.reload(ctx); err != nil {
		return nil, err
	}
	l.log.Info("ledger restored", zap.Int("events", len(l.events)))
	return l, nil
}

// reload replaces the in-memory sequence with the journal's. The caller must
// hold the write lock or have exclusive access. On error nothing changes.
func (l *Ledger) reload(ctx context.Context) error {
	stored, err := l.journal.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	events := make([]Event, 0, len(stored))
	byID := make(map[uuid.UUID]int, len(stored))
	for i, ev := range stored {
		if want := uint64(i + 1); ev.Seq != want {
			return fmt.Errorf("restore ledger: expected seq %d, got %d", want, ev.Seq)
		}
		if err := ev.validate(); err != nil {
			return fmt.Errorf("restore ledger: event %d: %w", ev.Seq, err)
		}
		byID[ev.ID()] = len(events)
		events = append(events, ev.clone())
	}
	l.events, l.byID = events, byID
	return nil
}

// Append admits ev if it satisfies the stored-event invariants and returns it
// with its assigned sequence number. On any error ev is not recorded.
//
// A Ledger assumes it is the journal's only writer. When another process has
// appended in the meantime the journal reports ErrConcurrencyConflict; the
// ledger then reloads from the journal and returns the conflict so the
// caller can retry against the refreshed sequence.
func (l *Ledger) Append(ctx context.Context, ev Event) (Event, error) {
	if err := ev.validate(); err != nil {
		return Event{}, err
	}
	stored := ev.clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.byID[stored.ID()]; dup {
		return Event{}, invalid(ReasonInvalidEvent, "id", "event %s is already recorded", stored.ID())
	}

	stored.Seq = uint64(len(l.events)) + 1
	stored.RecordedAt = l.now().UTC()

	if l.journal != nil {
		if err := l.journal.Append(ctx, stored); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) {
				if rerr := l.reload(ctx); rerr != nil {
					l.log.Error("reload after conflict failed", zap.Error(rerr))
				} else {
					l.log.Warn("journal advanced by another writer, reloaded",
						zap.Uint64("seq", stored.Seq),
						zap.Int("events", len(l.events)),
					)
				}
			}
			return Event{}, fmt.Errorf("append event %d: %w", stored.Seq, err)
		}
	}

	l.byID[stored.ID()] = len(l.events)
	l.events = append(l.events, stored)

	l.log.Debug("event appended",
		zap.Uint64("seq", stored.Seq),
		zap.String("kind", string(stored.Kind)),
		zap.String("id", stored.ID().String()),
	)
	return stored.clone(), nil
}

// snapshot returns the events appended so far. Stored events are never
// modified, so the returned slice stays valid after the lock is released;
// callers must treat it as read-only.
func (l *Ledger) snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events[:len(l.events):len(l.events)]
}

// Head returns the sequence number of the latest event, or 0 when empty.
func (l *Ledger) Head() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.events))
}

// Replay returns a copy of the full ordered event sequence.
func (l *Ledger) Replay() []Event {
	return cloneAll(l.snapshot())
}

// ReplayForGroup returns the group's expenses plus every settlement touching
// one of members. Settlements are not group scoped.
func (l *Ledger) ReplayForGroup(groupID uuid.UUID, members []uuid.UUID) []Event {
	return cloneAll(forGroup(l.snapshot(), groupID, members))
}

// Find returns the event carrying the expense or settlement with id.
func (l *Ledger) Find(id uuid.UUID) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Event{}, false
	}
	return l.events[i].clone(), true
}

func forGroup(events []Event, groupID uuid.UUID, members []uuid.UUID) []Event {
	in := make(map[uuid.UUID]struct{}, len(members))
	for _, id := range members {
		in[id] = struct{}{}
	}
	var out []Event
	for _, ev := range events {
		switch ev.Kind {
		case KindExpense:
			if ev.Expense.GroupID == groupID {
				out = append(out, ev)
			}
		case KindSettlement:
			_, from := in[ev.Settlement.FromUserID]
			_, to := in[ev.Settlement.ToUserID]
			if from || to {
				out = append(out, ev)
			}
		}
	}
	return out
}

func cloneAll(events []Event) []Event {
	out := make([]Event, len(events))
	for i, ev := range events {
		out[i] = ev.clone()
	}
	return out
}
