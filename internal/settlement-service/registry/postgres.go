package registry

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Postgres lê os labels da tabela result_types (administrada fora deste serviço)
type Postgres struct{ db *sqlx.DB }

func NewPostgres(db *sqlx.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) CurrentOutcomeLabels(ctx context.Context) (map[string]struct{}, error) {
	var names []string
	if err := p.db.SelectContext(ctx, &names, `SELECT name FROM result_types`); err != nil {
		return nil, err
	}
	return toSet(names), nil
}
