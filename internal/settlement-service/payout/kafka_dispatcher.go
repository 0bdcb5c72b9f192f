// Package payout envia itens de pagamento de apostas vencedoras para processamento assíncrono.
package payout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaDispatcher struct {
	Writer MessageWriter
	now    func() time.Time
}

func NewKafkaDispatcher(w MessageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{Writer: w, now: time.Now}
}

// Submit publica o pedido de pagamento; a chave é o bet_id para o worker deduplicar
func (d *KafkaDispatcher) Submit(ctx context.Context, req events.PayoutRequested) error {
	msg, err := d.message(req)
	if err != nil {
		return err
	}
	return d.Writer.WriteMessages(ctx, msg)
}

func (d *KafkaDispatcher) message(req events.PayoutRequested) (kafka.Message, error) {
	now := d.now()
	req.TsUnixMs = now.UnixMilli()
	b, err := json.Marshal(req)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(req.BetID),
		Value: b,
		Time:  now,
	}, nil
}
