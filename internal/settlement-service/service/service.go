// Package service implementa as operações de Event e Bet (validação -> persistência -> efeitos)
// e a liquidação das apostas quando um evento é concluído.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// Store define a persistência usada pelo serviço
type Store interface {
	InsertEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventsAwaitingSettlement(ctx context.Context, limit int) ([]string, error)

	InsertBet(ctx context.Context, b *model.Bet) error
	GetBet(ctx context.Context, id string) (model.Bet, error)
	UpdateBet(ctx context.Context, b *model.Bet, prevStatus model.BetStatus) error
	DeleteBet(ctx context.Context, id string) error
	ListBetsByEvent(ctx context.Context, eventID string) ([]model.Bet, error)
	ListPendingBets(ctx context.Context, eventID string) ([]model.Bet, error)
}

// Registry fornece os resultados válidos para Event.result
type Registry interface {
	CurrentOutcomeLabels(ctx context.Context) (map[string]struct{}, error)
}

// Notifier publica notificações de ciclo de vida por canal
type Notifier interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Dispatcher recebe os pagamentos de apostas vencedoras
type Dispatcher interface {
	Submit(ctx context.Context, req events.PayoutRequested) error
}

// sideEffectTimeout limita notify/dispatch; o estado já foi gravado
const sideEffectTimeout = 2 * time.Second

type Service struct {
	log      *zap.Logger
	store    Store
	registry Registry
	notifier Notifier
	payouts  Dispatcher

	now   func() time.Time
	newID func() string
}

func New(log *zap.Logger, store Store, registry Registry, notifier Notifier, payouts Dispatcher) *Service {
	return &Service{
		log:      log,
		store:    store,
		registry: registry,
		notifier: notifier,
		payouts:  payouts,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// detach: uma operação iniciada não é cancelada se o chamador desistir
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// publish serializa e publica; falhas viram warning e métrica, nunca erro para o chamador
func (s *Service) publish(ctx context.Context, channel string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("notification encode failed", zap.String("channel", channel), zap.Error(err))
		metrics.RecordNotification(channel, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	err = s.notifier.Publish(ctx, channel, payload)
	metrics.RecordNotification(channel, err)
	if err != nil {
		s.log.Warn("notification publish failed", zap.String("channel", channel), zap.Error(err))
	}
}

// submitPayout envia o item de pagamento; mesma política de falha do publish
func (s *Service) submitPayout(ctx context.Context, req events.PayoutRequested) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	err := s.payouts.Submit(ctx, req)
	metrics.RecordPayoutSubmission(err)
	if err != nil {
		s.log.Warn("payout submission failed",
			zap.String("bet_id", req.BetID),
			zap.String("user_id", req.UserID),
			zap.String("winnings", req.Winnings.String()),
			zap.Error(err),
		)
	}
}
