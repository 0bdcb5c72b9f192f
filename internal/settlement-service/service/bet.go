package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
	"github.com/radieske/bet-settlement-core/pkg/contracts/channels"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// GetBet retorna a aposta ou model.ErrNotFound
func (s *Service) GetBet(ctx context.Context, id string) (model.Bet, error) {
	return s.store.GetBet(ctx, id)
}

// CreateBet valida, confere o evento, grava e publica bet_created
func (s *Service) CreateBet(ctx context.Context, in model.BetInput) (model.Bet, error) {
	ctx = detach(ctx)

	b := in.Bet()
	if err := b.Validate(); err != nil {
		return model.Bet{}, err
	}
	if _, err := s.store.GetEvent(ctx, b.EventID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Bet{}, &model.ValidationError{Field: "event", Message: model.MsgMustExist}
		}
		return model.Bet{}, err
	}

	now := s.now()
	b.ID = s.newID()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := s.store.InsertBet(ctx, &b); err != nil {
		return model.Bet{}, fmt.Errorf("insert bet: %w", err)
	}

	s.publish(ctx, channels.BetCreated, b)
	return b, nil
}

// UpdateBet aplica o patch e publica bet_updated.
// Se o status entrou em completed nesta atualização a aposta é liquidada contra o
// resultado atual do evento (que precisa estar completed com result); vencedora
// emite bet_winning_updated e um item de pagamento.
func (s *Service) UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.Bet, error) {
	ctx = detach(ctx)

	cur, err := s.store.GetBet(ctx, id)
	if err != nil {
		return model.Bet{}, err
	}
	return s.updateBet(ctx, cur, patch, nil)
}

// updateBet recebe o evento já carregado quando chamado pelo orquestrador
func (s *Service) updateBet(ctx context.Context, cur model.Bet, patch model.BetPatch, ev *model.Event) (model.Bet, error) {
	next := cur
	patch.Apply(&next)
	if err := next.Validate(); err != nil {
		return model.Bet{}, err
	}

	settling := cur.Status != model.BetCompleted && next.Status == model.BetCompleted
	switch {
	case settling:
		if ev == nil {
			e, err := s.store.GetEvent(ctx, next.EventID)
			if err != nil {
				return model.Bet{}, fmt.Errorf("load event: %w", err)
			}
			ev = &e
		}
		// sem resultado a aposta seria gravada como perdida e nunca reavaliada
		if !ev.Settled() {
			return model.Bet{}, &model.ValidationError{Field: "status", Message: model.MsgEventUnsettled}
		}
		next.Settle(*ev)
	case next.Status != model.BetCompleted:
		next.Outcome = nil
	}

	next.UpdatedAt = s.now()
	if err := s.store.UpdateBet(ctx, &next, cur.Status); err != nil {
		return model.Bet{}, fmt.Errorf("update bet: %w", err)
	}

	s.publish(ctx, channels.BetUpdated, next)

	if settling {
		metrics.RecordBetSettled(string(*next.Outcome))
		if next.IsWon() {
			winnings := next.Winnings()
			s.publish(ctx, channels.BetWinningUpdated, events.BetWinningUpdated{
				UserID:   next.UserID,
				Winnings: winnings,
			})
			s.submitPayout(ctx, events.PayoutRequested{
				BetID:    next.ID,
				UserID:   next.UserID,
				Winnings: winnings,
			})
		}
	}
	return next, nil
}

// DestroyBet remove a aposta e publica bet_deleted
func (s *Service) DestroyBet(ctx context.Context, id string) error {
	ctx = detach(ctx)

	if _, err := s.store.GetBet(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteBet(ctx, id); err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}

	s.publish(ctx, channels.BetDeleted, events.Deleted{ID: id})
	return nil
}
