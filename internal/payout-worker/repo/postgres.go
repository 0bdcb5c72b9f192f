package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrUserNotFound: o crédito nunca vai passar, a mensagem deve ir para a DLQ
var ErrUserNotFound = errors.New("user not found")

// Postgres credita ganhos no saldo do usuário
type Postgres struct{ db *sqlx.DB }

func NewPostgres(db *sqlx.DB) *Postgres { return &Postgres{db: db} }

// Credit soma amount ao saldo do usuário uma única vez por externalRef.
// Retorna credited=false quando o externalRef já foi aplicado (reentrega).
// Garante lock pessimista na linha do usuário.
func (p *Postgres) Credit(ctx context.Context, userID string, amount decimal.Decimal, externalRef string) (credited bool, err error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowxContext(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return false, err
	}

	// Idempotência: external_ref é chave primária de payout_credits
	res, err := tx.ExecContext(ctx, `
		INSERT INTO payout_credits (external_ref, user_id, amount)
		VALUES ($1,$2,$3)
		ON CONFLICT (external_ref) DO NOTHING`, externalRef, id, amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users SET balance = balance + $1 WHERE id=$2`, amount, id); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
