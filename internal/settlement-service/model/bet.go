package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BetStatus string

const (
	BetPending   BetStatus = "pending"
	BetCompleted BetStatus = "completed" // terminal: liquidada, ver Outcome
	BetCanceled  BetStatus = "canceled"
)

func (s BetStatus) Valid() bool {
	switch s {
	case BetPending, BetCompleted, BetCanceled:
		return true
	}
	return false
}

// BetOutcome registra o desfecho de uma aposta liquidada
type BetOutcome string

const (
	OutcomeWon  BetOutcome = "won"
	OutcomeLost BetOutcome = "lost"
)

// Bet é a aposta de um usuário num resultado previsto de um Event.
// Odds é capturada no momento da aposta e independe da odds atual do evento.
type Bet struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	EventID          string          `json:"event_id" db:"event_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Odds             decimal.Decimal `json:"odds" db:"odds"`
	PredictedOutcome string          `json:"predicted_outcome" db:"predicted_outcome"`
	Status           BetStatus       `json:"status" db:"status"`
	Outcome          *BetOutcome     `json:"outcome" db:"outcome"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// ApplyDefaults define status pending quando não informado (antes de validar)
func (b *Bet) ApplyDefaults() {
	if b.Status == "" {
		b.Status = BetPending
	}
}

func (b Bet) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(b.UserID) == "" {
		errs.add("user", MsgMustExist)
	}
	if strings.TrimSpace(b.EventID) == "" {
		errs.add("event", MsgMustExist)
	}
	errs.checkMoney("amount", b.Amount, AmountMaxDigits)
	errs.checkMoney("odds", b.Odds, OddsMaxDigits)
	switch {
	case b.Status == "":
		errs.add("status", MsgBlank)
	case !b.Status.Valid():
		errs.add("status", MsgNotIncluded)
	}

	return errs.orNil()
}

// Won compara o palpite com o resultado do evento; resultado nulo nunca casa
func (b Bet) Won(e Event) bool {
	return e.Result != nil && *e.Result == b.PredictedOutcome
}

// Winnings = amount * odds, sem arredondamento
func (b Bet) Winnings() decimal.Decimal {
	return b.Amount.Mul(b.Odds)
}

// Settleable: ainda não liquidada nem cancelada
func (b Bet) Settleable() bool {
	return b.Status == BetPending
}

// IsWon informa se a aposta foi liquidada como vencedora
func (b Bet) IsWon() bool {
	return b.Status == BetCompleted && b.Outcome != nil && *b.Outcome == OutcomeWon
}

// Settle grava o desfecho contra o resultado atual do evento
func (b *Bet) Settle(e Event) {
	o := OutcomeLost
	if b.Won(e) {
		o = OutcomeWon
	}
	b.Status = BetCompleted
	b.Outcome = &o
}

// BetInput são os campos aceitos na criação de uma aposta
type BetInput struct {
	UserID           string
	EventID          string
	Amount           decimal.Decimal
	Odds             decimal.Decimal
	PredictedOutcome string
	Status           BetStatus
}

func (in BetInput) Bet() Bet {
	b := Bet{
		UserID:           in.UserID,
		EventID:          in.EventID,
		Amount:           in.Amount,
		Odds:             in.Odds,
		PredictedOutcome: in.PredictedOutcome,
		Status:           in.Status,
	}
	b.ApplyDefaults()
	return b
}

// BetPatch carrega apenas os campos alterados
type BetPatch struct {
	Amount           *decimal.Decimal
	Odds             *decimal.Decimal
	PredictedOutcome *string
	Status           *BetStatus
}

func (p BetPatch) Apply(b *Bet) {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Odds != nil {
		b.Odds = *p.Odds
	}
	if p.PredictedOutcome != nil {
		b.PredictedOutcome = *p.PredictedOutcome
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}
