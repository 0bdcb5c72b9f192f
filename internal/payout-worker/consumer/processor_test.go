package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/payout-worker/repo"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// fakeReader entrega as mensagens em ordem e cancela o contexto quando esvazia
type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

type fakeWriter struct{ msgs []kafka.Message }

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// memLedger simula users.balance + payout_credits
type memLedger struct {
	balances map[string]decimal.Decimal
	refs     map[string]bool
	failures int // falhas transitórias antes de aceitar
	calls    int
}

func newMemLedger(users ...string) *memLedger {
	l := &memLedger{balances: map[string]decimal.Decimal{}, refs: map[string]bool{}}
	for _, u := range users {
		l.balances[u] = decimal.Zero
	}
	return l
}

func (l *memLedger) Credit(_ context.Context, userID string, amount decimal.Decimal, ref string) (bool, error) {
	l.calls++
	if l.failures > 0 {
		l.failures--
		return false, errors.New("connection reset")
	}
	bal, ok := l.balances[userID]
	if !ok {
		return false, fmt.Errorf("user %s: %w", userID, repo.ErrUserNotFound)
	}
	if l.refs[ref] {
		return false, nil
	}
	l.refs[ref] = true
	l.balances[userID] = bal.Add(amount)
	return true, nil
}

func payoutMsg(t *testing.T, betID, userID, winnings string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(events.PayoutRequested{
		BetID:    betID,
		UserID:   userID,
		Winnings: decimal.RequireFromString(winnings),
	})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Topic: "process_winnings", Key: []byte(betID), Value: b}
}

func run(t *testing.T, p *Processor, msgs ...kafka.Message) (*fakeReader, map[string]int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{msgs: msgs, cancel: cancel}
	stages := map[string]int{}
	p.Log = zap.NewNop()
	p.Reader = r
	p.OnStage = func(s string) { stages[s]++ }

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	return r, stages
}

func TestProcessor_CreditsOncePerBet(t *testing.T) {
	ledger := newMemLedger("u1")
	p := &Processor{Ledger: ledger}

	r, stages := run(t, p,
		payoutMsg(t, "b1", "u1", "250"),
		payoutMsg(t, "b1", "u1", "250"), // reentrega
		payoutMsg(t, "b2", "u1", "4.65"),
	)

	if !ledger.balances["u1"].Equal(decimal.RequireFromString("254.65")) {
		t.Fatalf("balance = %s", ledger.balances["u1"])
	}
	if stages["credited"] != 2 || stages["duplicate"] != 1 {
		t.Fatalf("stages = %v", stages)
	}
	if len(r.committed) != 3 {
		t.Fatalf("committed = %d", len(r.committed))
	}
}

func TestProcessor_PoisonMessagesGoToDLQ(t *testing.T) {
	ledger := newMemLedger("u1")
	dlq := &fakeWriter{}
	p := &Processor{Ledger: ledger, DLQ: dlq}

	r, stages := run(t, p,
		kafka.Message{Topic: "process_winnings", Key: []byte("x"), Value: []byte("{not json")},
		payoutMsg(t, "b3", "u1", "0"),
		payoutMsg(t, "b4", "ghost", "10"),
	)

	if len(dlq.msgs) != 3 {
		t.Fatalf("dlq = %d", len(dlq.msgs))
	}
	if got := string(dlq.msgs[2].Headers[0].Value); got == "" {
		t.Fatal("expected error header")
	}
	if stages["error_decode"] != 2 || stages["error_credit"] != 1 || stages["dlq"] != 3 {
		t.Fatalf("stages = %v", stages)
	}
	if ledger.calls != 1 {
		t.Fatalf("unknown user should not be retried, calls = %d", ledger.calls)
	}
	if len(r.committed) != 3 {
		t.Fatalf("committed = %d", len(r.committed))
	}
}

func TestProcessor_RetriesTransientFailures(t *testing.T) {
	ledger := newMemLedger("u1")
	ledger.failures = 2
	p := &Processor{Ledger: ledger, Retries: 3}

	_, stages := run(t, p, payoutMsg(t, "b5", "u1", "10"))

	if ledger.calls != 3 || stages["credited"] != 1 {
		t.Fatalf("calls = %d, stages = %v", ledger.calls, stages)
	}
	if !ledger.balances["u1"].Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance = %s", ledger.balances["u1"])
	}
}

func TestProcessor_GivesUpAfterRetries(t *testing.T) {
	ledger := newMemLedger("u1")
	ledger.failures = 10
	dlq := &fakeWriter{}
	p := &Processor{Ledger: ledger, DLQ: dlq, Retries: 2}

	_, stages := run(t, p, payoutMsg(t, "b6", "u1", "10"))

	if ledger.calls != 3 {
		t.Fatalf("calls = %d", ledger.calls)
	}
	if stages["error_credit"] != 1 || len(dlq.msgs) != 1 {
		t.Fatalf("stages = %v, dlq = %d", stages, len(dlq.msgs))
	}
}

// flakyWriter falha as primeiras `failures` escritas; com cancelAfter > 0 cancela
// o contexto depois dessa quantidade de falhas
type flakyWriter struct {
	fakeWriter
	failures    int
	failed      int
	cancelAfter int
	cancel      context.CancelFunc
}

func (w *flakyWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		w.failed++
		if w.cancelAfter > 0 && w.failed >= w.cancelAfter {
			w.cancel()
		}
		return errors.New("broker down")
	}
	return w.fakeWriter.WriteMessages(ctx, msgs...)
}

func TestProcessor_DoesNotCommitWhenDLQWriteFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := newMemLedger("u1")
	ledger.failures = 100
	dlq := &flakyWriter{failures: 100, cancelAfter: 3, cancel: cancel}
	r := &fakeReader{msgs: []kafka.Message{payoutMsg(t, "b7", "u1", "10")}, cancel: cancel}
	stages := map[string]int{}
	p := &Processor{
		Log:     zap.NewNop(),
		Reader:  r,
		Ledger:  ledger,
		DLQ:     dlq,
		Retries: 1,
		OnStage: func(s string) { stages[s]++ },
	}

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if len(r.committed) != 0 {
		t.Fatalf("offset committed without credit or dlq: %d", len(r.committed))
	}
	if stages["error_dlq"] != 3 || stages["dlq"] != 0 {
		t.Fatalf("stages = %v", stages)
	}
	if !ledger.balances["u1"].IsZero() {
		t.Fatalf("balance = %s", ledger.balances["u1"])
	}
}

func TestProcessor_CommitsOnceDLQRecovers(t *testing.T) {
	ledger := newMemLedger("u1")
	ledger.failures = 100
	dlq := &flakyWriter{failures: 2}
	p := &Processor{Ledger: ledger, DLQ: dlq}

	r, stages := run(t, p, payoutMsg(t, "b8", "u1", "10"))

	if stages["error_dlq"] != 2 || stages["dlq"] != 1 || len(dlq.msgs) != 1 {
		t.Fatalf("stages = %v, dlq = %d", stages, len(dlq.msgs))
	}
	if len(r.committed) != 1 {
		t.Fatalf("committed = %d", len(r.committed))
	}
}

func TestProcessor_WithoutDLQRetriesUntilCredited(t *testing.T) {
	ledger := newMemLedger("u1")
	ledger.failures = 3
	p := &Processor{Ledger: ledger, Retries: 1}

	r, stages := run(t, p, payoutMsg(t, "b9", "u1", "10"))

	// duas tentativas por rodada: a primeira rodada falha inteira, a segunda credita
	if ledger.calls != 4 || stages["error_credit"] != 1 || stages["credited"] != 1 {
		t.Fatalf("calls = %d, stages = %v", ledger.calls, stages)
	}
	if !ledger.balances["u1"].Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance = %s", ledger.balances["u1"])
	}
	if len(r.committed) != 1 {
		t.Fatalf("committed = %d", len(r.committed))
	}
}

func TestProcessor_WithoutDLQDropsUnknownUser(t *testing.T) {
	ledger := newMemLedger("u1")
	p := &Processor{Ledger: ledger}

	r, stages := run(t, p, payoutMsg(t, "b10", "ghost", "10"))

	if ledger.calls != 1 || stages["error_credit"] != 1 {
		t.Fatalf("calls = %d, stages = %v", ledger.calls, stages)
	}
	if len(r.committed) != 1 {
		t.Fatalf("committed = %d", len(r.committed))
	}
}
