package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
)

// PartialSettlementError lista as apostas que falharam ao liquidar um evento.
// As demais apostas e o status do evento permanecem gravados.
type PartialSettlementError struct {
	EventID      string
	FailedBetIDs []string
	Errs         []error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("event %s: %d bet(s) failed to settle: %s",
		e.EventID, len(e.FailedBetIDs), strings.Join(e.FailedBetIDs, ","))
}

func (e *PartialSettlementError) Unwrap() []error { return e.Errs }

// settleEvent liquida cada aposta pendente do evento de forma independente.
// Apostas já liquidadas ou canceladas não são tocadas (idempotente por aposta).
func (s *Service) settleEvent(ctx context.Context, e model.Event) error {
	started := time.Now()

	bets, err := s.store.ListPendingBets(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("list pending bets: %w", err)
	}

	completed := model.BetCompleted
	perr := &PartialSettlementError{EventID: e.ID}
	for _, b := range bets {
		if !b.Settleable() {
			continue
		}
		_, err := s.updateBet(ctx, b, model.BetPatch{Status: &completed}, &e)
		if errors.Is(err, model.ErrStaleWrite) {
			// liquidada (ou alterada) por outra execução entre a listagem e a escrita
			continue
		}
		if err != nil {
			metrics.RecordBetSettled("failed")
			perr.FailedBetIDs = append(perr.FailedBetIDs, b.ID)
			perr.Errs = append(perr.Errs, fmt.Errorf("bet %s: %w", b.ID, err))
		}
	}

	metrics.RecordEventSettlement(len(perr.FailedBetIDs) > 0, started)
	s.log.Info("event settled",
		zap.String("event_id", e.ID),
		zap.String("result", *e.Result),
		zap.Int("bets", len(bets)),
		zap.Int("failed", len(perr.FailedBetIDs)),
	)

	if len(perr.FailedBetIDs) > 0 {
		return perr
	}
	return nil
}

// ReconcileEvent reexecuta a liquidação de um evento concluído (recuperação após falha parcial)
func (s *Service) ReconcileEvent(ctx context.Context, id string) error {
	ctx = detach(ctx)

	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !e.Settled() {
		return &model.ValidationError{Field: "status", Message: "must be completed with a result to settle"}
	}
	return s.settleEvent(ctx, e)
}

// Sweep procura eventos concluídos que ainda têm apostas pendentes e os reconcilia.
// Retorna quantos eventos foram liquidados sem falhas.
func (s *Service) Sweep(ctx context.Context, limit int) (int, error) {
	ids, err := s.store.ListEventsAwaitingSettlement(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list events awaiting settlement: %w", err)
	}

	ok := 0
	for _, id := range ids {
		if err := s.ReconcileEvent(ctx, id); err != nil {
			s.logSettlementFailure(id, err)
			continue
		}
		ok++
	}
	if len(ids) > 0 {
		s.log.Info("settlement sweep done", zap.Int("events", len(ids)), zap.Int("settled", ok))
	}
	return ok, nil
}
