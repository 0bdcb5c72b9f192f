package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
)

// Postgres implementa a persistência de eventos e apostas.
// Cada método é uma unidade atômica; não há transação englobando evento + apostas.
type Postgres struct{ db *sqlx.DB }

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sqlx.DB) *Postgres { return &Postgres{db: db} }

const (
	eventColumns = `id, name, start_time, odds, status, result, created_at, updated_at`
	betColumns   = `id, user_id, event_id, amount, odds, predicted_outcome, status, outcome, created_at, updated_at`
)

// InsertEvent insere um novo evento
func (p *Postgres) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (:id,:name,:start_time,:odds,:status,:result,:created_at,:updated_at)`, e)
	return err
}

// GetEvent retorna o evento pelo id ou model.ErrNotFound
func (p *Postgres) GetEvent(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	err := p.db.GetContext(ctx, &e, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return e, err
}

// UpdateEvent grava o estado completo do evento (last-writer-wins)
func (p *Postgres) UpdateEvent(ctx context.Context, e *model.Event) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE events
		SET name=$2, start_time=$3, odds=$4, status=$5, result=$6, updated_at=$7
		WHERE id=$1`,
		e.ID, e.Name, e.StartTime, e.Odds, e.Status, e.Result, e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "event", e.ID)
}

// DeleteEvent remove só o evento; apostas devem ser removidas antes pelo chamador
func (p *Postgres) DeleteEvent(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "event", id)
}

// ListEventsAwaitingSettlement retorna eventos concluídos com resultado que ainda têm apostas pendentes
func (p *Postgres) ListEventsAwaitingSettlement(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := p.db.SelectContext(ctx, &ids, `
		SELECT e.id
		FROM events e
		WHERE e.status = 'completed'
		  AND e.result IS NOT NULL
		  AND EXISTS (SELECT 1 FROM bets b WHERE b.event_id = e.id AND b.status = 'pending')
		ORDER BY e.updated_at
		LIMIT $1`, limit)
	return ids, err
}

// InsertBet insere uma nova aposta
func (p *Postgres) InsertBet(ctx context.Context, b *model.Bet) error {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO bets (`+betColumns+`)
		VALUES (:id,:user_id,:event_id,:amount,:odds,:predicted_outcome,:status,:outcome,:created_at,:updated_at)`, b)
	return err
}

// GetBet retorna a aposta pelo id ou model.ErrNotFound
func (p *Postgres) GetBet(ctx context.Context, id string) (model.Bet, error) {
	var b model.Bet
	err := p.db.GetContext(ctx, &b, `SELECT `+betColumns+` FROM bets WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bet{}, fmt.Errorf("bet %s: %w", id, model.ErrNotFound)
	}
	return b, err
}

// UpdateBet grava a aposta somente se o status ainda for prevStatus.
// Garante uma única transição para completed mesmo com liquidações concorrentes.
func (p *Postgres) UpdateBet(ctx context.Context, b *model.Bet, prevStatus model.BetStatus) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var cur model.BetStatus
	err = tx.QueryRowxContext(ctx, `SELECT status FROM bets WHERE id=$1 FOR UPDATE`, b.ID).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("bet %s: %w", b.ID, model.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if cur != prevStatus {
		return fmt.Errorf("bet %s status %s (expected %s): %w", b.ID, cur, prevStatus, model.ErrStaleWrite)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE bets
		SET amount=$2, odds=$3, predicted_outcome=$4, status=$5, outcome=$6, updated_at=$7
		WHERE id=$1`,
		b.ID, b.Amount, b.Odds, b.PredictedOutcome, b.Status, b.Outcome, b.UpdatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBet remove uma aposta
func (p *Postgres) DeleteBet(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "bet", id)
}

// ListBetsByEvent lista todas as apostas de um evento
func (p *Postgres) ListBetsByEvent(ctx context.Context, eventID string) ([]model.Bet, error) {
	var out []model.Bet
	err := p.db.SelectContext(ctx, &out,
		`SELECT `+betColumns+` FROM bets WHERE event_id=$1 ORDER BY created_at, id`, eventID)
	return out, err
}

// ListPendingBets lista as apostas ainda liquidáveis de um evento
func (p *Postgres) ListPendingBets(ctx context.Context, eventID string) ([]model.Bet, error) {
	var out []model.Bet
	err := p.db.SelectContext(ctx, &out,
		`SELECT `+betColumns+` FROM bets WHERE event_id=$1 AND status='pending' ORDER BY created_at, id`, eventID)
	return out, err
}

// Ping usado pelo /healthz
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}
