package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/registry"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// memStore é uma implementação em memória de Store para testes
type memStore struct {
	mu       sync.Mutex
	events   map[string]model.Event
	bets     map[string]model.Bet
	betOrder []string

	failUpdateBet map[string]error
	writes        int
}

func newMemStore() *memStore {
	return &memStore{
		events:        map[string]model.Event{},
		bets:          map[string]model.Bet{},
		failUpdateBet: map[string]error{},
	}
}

func (m *memStore) InsertEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return e, nil
}

func (m *memStore) UpdateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return model.ErrNotFound
	}
	m.writes++
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return model.ErrNotFound
	}
	m.writes++
	delete(m.events, id)
	return nil
}

func (m *memStore) ListEventsAwaitingSettlement(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	seen := map[string]bool{}
	for _, id := range m.betOrder {
		b, ok := m.bets[id]
		if !ok || b.Status != model.BetPending || seen[b.EventID] {
			continue
		}
		if e, ok := m.events[b.EventID]; ok && e.Settled() {
			seen[b.EventID] = true
			out = append(out, b.EventID)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) InsertBet(_ context.Context, b *model.Bet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.bets[b.ID] = *b
	m.betOrder = append(m.betOrder, b.ID)
	return nil
}

func (m *memStore) GetBet(_ context.Context, id string) (model.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[id]
	if !ok {
		return model.Bet{}, fmt.Errorf("bet %s: %w", id, model.ErrNotFound)
	}
	return b, nil
}

func (m *memStore) UpdateBet(_ context.Context, b *model.Bet, prev model.BetStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failUpdateBet[b.ID]; err != nil {
		return err
	}
	cur, ok := m.bets[b.ID]
	if !ok {
		return model.ErrNotFound
	}
	if cur.Status != prev {
		return model.ErrStaleWrite
	}
	m.writes++
	m.bets[b.ID] = *b
	return nil
}

func (m *memStore) DeleteBet(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bets[id]; !ok {
		return model.ErrNotFound
	}
	m.writes++
	delete(m.bets, id)
	return nil
}

func (m *memStore) ListBetsByEvent(_ context.Context, eventID string) ([]model.Bet, error) {
	return m.listBets(eventID, false), nil
}

func (m *memStore) ListPendingBets(_ context.Context, eventID string) ([]model.Bet, error) {
	return m.listBets(eventID, true), nil
}

func (m *memStore) listBets(eventID string, pendingOnly bool) []model.Bet {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bet
	for _, id := range m.betOrder {
		b, ok := m.bets[id]
		if !ok || b.EventID != eventID || (pendingOnly && b.Status != model.BetPending) {
			continue
		}
		out = append(out, b)
	}
	return out
}

type published struct {
	channel string
	payload string
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (n *recordingNotifier) Publish(_ context.Context, channel string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, published{channel: channel, payload: string(payload)})
	return n.err
}

func (n *recordingNotifier) on(channel string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.msgs {
		if m.channel == channel {
			out = append(out, m.payload)
		}
	}
	return out
}

func (n *recordingNotifier) channels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.channel
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	reqs []events.PayoutRequested
	err  error
}

func (d *recordingDispatcher) Submit(_ context.Context, req events.PayoutRequested) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return d.err
}

type failingRegistry struct{}

func (failingRegistry) CurrentOutcomeLabels(context.Context) (map[string]struct{}, error) {
	return nil, errors.New("registry unavailable")
}

type fixture struct {
	svc      *Service
	store    *memStore
	notifier *recordingNotifier
	payouts  *recordingDispatcher
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	f := &fixture{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		payouts:  &recordingDispatcher{},
		logs:     logs,
	}
	f.svc = New(zap.New(core), f.store, registry.NewStatic("win", "lose", "draw", "penalty"), f.notifier, f.payouts)

	seq := 0
	f.svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	f.svc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return f
}
