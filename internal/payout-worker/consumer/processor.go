package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/payout-worker/repo"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado pelo processor
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Ledger aplica o crédito de forma idempotente por externalRef
type Ledger interface {
	Credit(ctx context.Context, userID string, amount decimal.Decimal, externalRef string) (bool, error)
}

var (
	errInvalidPayout = errors.New("invalid payout message")
	errNoDLQ         = errors.New("no dlq configured")
)

// Processor consome pedidos de pagamento do Kafka e credita o saldo do usuário.
// O offset só é confirmado depois do crédito (ou do envio para a DLQ); se nenhum
// dos dois aconteceu a mesma mensagem é reprocessada até dar certo.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Ledger Ledger
	DLQ    MessageWriter // opcional

	Retries int
	Backoff time.Duration

	OnStage func(stage string) // métricas por estágio
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.stage("error_read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.stage("consumed")

		if err := p.process(ctx, m); err != nil {
			// contexto cancelado sem commit; mensagem será reentregue
			return err
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.stage("error_commit")
		}
	}
}

// process repete handle na mesma mensagem até ela ser creditada ou ir para a DLQ.
// Retorna erro apenas com o contexto cancelado.
func (p *Processor) process(ctx context.Context, m kafka.Message) error {
	for round := 1; ; round++ {
		err := p.handle(ctx, m)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Warn("payout not settled, retrying message",
			zap.ByteString("key", m.Key),
			zap.Int64("offset", m.Offset),
			zap.Int("round", round),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff):
		}
	}
}

// handle processa uma mensagem; nil significa que o offset pode ser confirmado
func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	req, err := decode(m.Value)
	if err != nil {
		p.Log.Warn("invalid payout message", zap.ByteString("key", m.Key), zap.Error(err))
		p.stage("error_decode")
		// mensagem inválida nunca vai passar; sem DLQ é descartada
		if dlqErr := p.deadLetter(ctx, m, err); dlqErr != nil && !errors.Is(dlqErr, errNoDLQ) {
			return dlqErr
		}
		return nil
	}

	ref := "bet:" + req.BetID
	var credited bool
	for attempt := 0; ; attempt++ {
		credited, err = p.Ledger.Credit(ctx, req.UserID, req.Winnings, ref)
		if err == nil || errors.Is(err, repo.ErrUserNotFound) || attempt >= p.Retries {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// retry simples com backoff linear
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * p.Backoff):
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Error("payout credit failed",
			zap.String("bet_id", req.BetID),
			zap.String("user_id", req.UserID),
			zap.String("winnings", req.Winnings.String()),
			zap.Error(err),
		)
		p.stage("error_credit")
		dlqErr := p.deadLetter(ctx, m, err)
		switch {
		case dlqErr == nil:
			return nil
		case errors.Is(dlqErr, errNoDLQ) && errors.Is(err, repo.ErrUserNotFound):
			// usuário inexistente não se resolve com nova tentativa
			return nil
		case errors.Is(dlqErr, errNoDLQ):
			return err
		default:
			return dlqErr
		}
	}

	if !credited {
		p.Log.Info("payout already credited", zap.String("bet_id", req.BetID))
		p.stage("duplicate")
		return nil
	}

	p.Log.Info("payout credited",
		zap.String("bet_id", req.BetID),
		zap.String("user_id", req.UserID),
		zap.String("winnings", req.Winnings.String()),
	)
	p.stage("credited")
	return nil
}

func decode(b []byte) (events.PayoutRequested, error) {
	var req events.PayoutRequested
	if err := json.Unmarshal(b, &req); err != nil {
		return req, err
	}
	switch {
	case req.BetID == "":
		return req, fmt.Errorf("%w: bet_id missing", errInvalidPayout)
	case req.UserID == "":
		return req, fmt.Errorf("%w: user_id missing", errInvalidPayout)
	case !req.Winnings.IsPositive():
		return req, fmt.Errorf("%w: winnings must be positive", errInvalidPayout)
	}
	return req, nil
}

// deadLetter copia a mensagem para a DLQ com o motivo no header
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	if p.DLQ == nil {
		return errNoDLQ
	}
	dl := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(cause.Error())},
			{Key: "source_topic", Value: []byte(m.Topic)},
		},
		Time: time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, dl); err != nil {
		p.Log.Error("dlq write failed", zap.ByteString("key", m.Key), zap.Error(err))
		p.stage("error_dlq")
		return fmt.Errorf("dlq write: %w", err)
	}
	p.stage("dlq")
	return nil
}

func (p *Processor) stage(s string) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}
