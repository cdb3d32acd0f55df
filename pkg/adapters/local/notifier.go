// Package local is a desktop rendition of the platform notification layer.
// Channels and pending triggers live under one key of a core.Store, and a
// Dispatcher delivers triggers once they are due.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/reminder"
)

// ErrUnknownChannel is returned when a trigger names an undeclared channel.
var ErrUnknownChannel = errors.New("unknown notification channel")

// historyLimit bounds the delivered-trigger history kept for status output.
const historyLimit = 50

// Delivery records a trigger that fired.
type Delivery struct {
	Trigger     reminder.Trigger `json:"trigger"`
	DeliveredAt int64            `json:"deliveredAt"`
}

type state struct {
	Channels  []reminder.Channel `json:"channels"`
	Triggers  []reminder.Trigger `json:"triggers"`
	Delivered []Delivery         `json:"delivered"`
}

// Notifier implements reminder.Notifier on top of a core.Store.
type Notifier struct {
	store  core.Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier creates a Notifier persisting under core.TriggersKey.
func NewNotifier(store core.Store, opts ...Option) *Notifier {
	n := &Notifier{
		store:  store,
		key:    core.TriggersKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) load(ctx context.Context) (state, error) {
	var st state
	data, found, err := n.store.Get(ctx, n.key)
	if err != nil {
		return st, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if !found || len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("%w: decode %s: %v", core.ErrStorageUnavailable, n.key, err)
	}
	return st, nil
}

func (n *Notifier) save(ctx context.Context, st state) error {
	if st.Channels == nil {
		st.Channels = []reminder.Channel{}
	}
	if st.Triggers == nil {
		st.Triggers = []reminder.Trigger{}
	}
	if st.Delivered == nil {
		st.Delivered = []Delivery{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return n.store.Set(ctx, n.key, data)
}

func (n *Notifier) update(ctx context.Context, fn func(*state) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, err := n.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}
	return n.save(ctx, st)
}

// CreateChannel implements reminder.Notifier. Redeclaring a channel updates
// its name and importance.
func (n *Notifier) CreateChannel(ctx context.Context, ch reminder.Channel) error {
	if ch.ID == "" {
		return fmt.Errorf("channel id is required")
	}
	return n.update(ctx, func(st *state) error {
		for i, c := range st.Channels {
			if c.ID == ch.ID {
				st.Channels[i] = ch
				return nil
			}
		}
		st.Channels = append(st.Channels, ch)
		return nil
	})
}

// Register implements reminder.Notifier.
func (n *Notifier) Register(ctx context.Context, t reminder.Trigger) (string, error) {
	t.ID = uuid.NewString()
	err := n.update(ctx, func(st *state) error {
		if !slices.ContainsFunc(st.Channels, func(c reminder.Channel) bool { return c.ID == t.Notification.ChannelID }) {
			return fmt.Errorf("%w: %q", ErrUnknownChannel, t.Notification.ChannelID)
		}
		st.Triggers = append(st.Triggers, t)
		return nil
	})
	if err != nil {
		return "", err
	}
	n.logger.Debug("trigger registered", "trigger", t.ID, "note", t.Notification.NoteID(), "fire_at", t.FireAt)
	return t.ID, nil
}

// Cancel implements reminder.Notifier.
func (n *Notifier) Cancel(ctx context.Context, triggerID string) error {
	return n.update(ctx, func(st *state) error {
		st.Triggers = slices.DeleteFunc(st.Triggers, func(t reminder.Trigger) bool { return t.ID == triggerID })
		return nil
	})
}

// CancelForNote implements reminder.Notifier.
func (n *Notifier) CancelForNote(ctx context.Context, noteID string) error {
	return n.update(ctx, func(st *state) error {
		st.Triggers = slices.DeleteFunc(st.Triggers, func(t reminder.Trigger) bool {
			return t.Notification.NoteID() == noteID
		})
		return nil
	})
}

// Pending implements reminder.Notifier. Triggers are ordered by fire time.
func (n *Notifier) Pending(ctx context.Context) ([]reminder.Trigger, error) {
	n.mu.Lock()
	st, err := n.load(ctx)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := slices.Clone(st.Triggers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FireAt < out[j].FireAt })
	if out == nil {
		out = []reminder.Trigger{}
	}
	return out, nil
}

// Channels lists declared channels.
func (n *Notifier) Channels(ctx context.Context) ([]reminder.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, err := n.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Channels, nil
}

// Delivered returns the most recent deliveries, oldest first.
func (n *Notifier) Delivered(ctx context.Context) ([]Delivery, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, err := n.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Delivered, nil
}

// Claim removes every trigger due at the current time and records it as
// delivered. Triggers whose time passed while nothing was running are
// claimed as well.
func (n *Notifier) Claim(ctx context.Context) ([]reminder.Trigger, error) {
	now := n.now()
	var due []reminder.Trigger
	err := n.update(ctx, func(st *state) error {
		kept := st.Triggers[:0]
		for _, t := range st.Triggers {
			if t.Due(now) {
				due = append(due, t)
				st.Delivered = append(st.Delivered, Delivery{Trigger: t, DeliveredAt: now.UnixMilli()})
				continue
			}
			kept = append(kept, t)
		}
		if len(due) == 0 {
			return errNothingDue
		}
		st.Triggers = kept
		if over := len(st.Delivered) - historyLimit; over > 0 {
			st.Delivered = st.Delivered[over:]
		}
		return nil
	})
	if errors.Is(err, errNothingDue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].FireAt < due[j].FireAt })
	return due, nil
}

// errNothingDue short-circuits Claim without rewriting the store.
var errNothingDue = errors.New("nothing due")

var _ reminder.Notifier = (*Notifier)(nil)
