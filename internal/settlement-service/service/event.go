package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
	"github.com/radieske/bet-settlement-core/pkg/contracts/channels"
	"github.com/radieske/bet-settlement-core/pkg/contracts/events"
)

// GetEvent retorna o evento ou model.ErrNotFound
func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListEventBets lista as apostas de um evento existente
func (s *Service) ListEventBets(ctx context.Context, id string) ([]model.Bet, error) {
	if _, err := s.store.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListBetsByEvent(ctx, id)
}

// CreateEvent valida, grava e publica event_created
func (s *Service) CreateEvent(ctx context.Context, in model.EventInput) (model.Event, error) {
	ctx = detach(ctx)

	e := in.Event()
	if err := s.validateEvent(ctx, e); err != nil {
		return model.Event{}, err
	}

	now := s.now()
	e.ID = s.newID()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.store.InsertEvent(ctx, &e); err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}

	s.publish(ctx, channels.EventCreated, e)
	return e, nil
}

// UpdateEvent aplica o patch, valida, grava e publica event_updated.
// Se o evento passou a estar concluído com resultado, liquida as apostas pendentes
// antes de retornar; falhas por aposta são logadas e não desfazem a atualização.
func (s *Service) UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error) {
	ctx = detach(ctx)

	cur, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}

	next := cur
	patch.Apply(&next)
	if err := s.validateEvent(ctx, next); err != nil {
		return model.Event{}, err
	}

	next.UpdatedAt = s.now()
	if err := s.store.UpdateEvent(ctx, &next); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}

	s.publish(ctx, channels.EventUpdated, next)

	if next.SettlementDueAfter(cur) {
		if err := s.settleEvent(ctx, next); err != nil {
			s.logSettlementFailure(next.ID, err)
		}
	}
	return next, nil
}

// DestroyEvent remove cada aposta (cada uma emite bet_deleted), depois o evento (event_deleted)
func (s *Service) DestroyEvent(ctx context.Context, id string) error {
	ctx = detach(ctx)

	if _, err := s.store.GetEvent(ctx, id); err != nil {
		return err
	}

	bets, err := s.store.ListBetsByEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("list bets: %w", err)
	}
	for _, b := range bets {
		if err := s.DestroyBet(ctx, b.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("destroy bet %s: %w", b.ID, err)
		}
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.publish(ctx, channels.EventDeleted, events.Deleted{ID: id})
	return nil
}

// validateEvent consulta o registro apenas quando há resultado a validar
func (s *Service) validateEvent(ctx context.Context, e model.Event) error {
	var labels map[string]struct{}
	if e.Result != nil {
		l, err := s.registry.CurrentOutcomeLabels(ctx)
		if err != nil {
			return fmt.Errorf("load outcome labels: %w", err)
		}
		labels = l
	}
	return e.Validate(labels)
}

func (s *Service) logSettlementFailure(eventID string, err error) {
	var perr *PartialSettlementError
	if errors.As(err, &perr) {
		s.log.Warn("partial settlement",
			zap.String("event_id", eventID),
			zap.Strings("failed_bet_ids", perr.FailedBetIDs),
			zap.Error(err),
		)
		return
	}
	s.log.Warn("settlement failed", zap.String("event_id", eventID), zap.Error(err))
}
