package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted:
		return true
	}
	return false
}

// Event é um acontecimento real com resultado eventual; dono das apostas feitas nele.
type Event struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	StartTime time.Time       `json:"start_time" db:"start_time"`
	Odds      decimal.Decimal `json:"odds" db:"odds"`
	Status    EventStatus     `json:"status" db:"status"`
	Result    *string         `json:"result" db:"result"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ApplyDefaults define status upcoming quando não informado
func (e *Event) ApplyDefaults() {
	if e.Status == "" {
		e.Status = EventUpcoming
	}
}

// Validate checa campos obrigatórios, odds, status e a regra do resultado.
// labels é o conjunto atual de resultados válidos; só é consultado quando há result.
func (e Event) Validate(labels map[string]struct{}) error {
	var errs ValidationErrors

	if strings.TrimSpace(e.Name) == "" {
		errs.add("name", MsgBlank)
	}
	if e.StartTime.IsZero() {
		errs.add("start_time", MsgBlank)
	}
	errs.checkMoney("odds", e.Odds, OddsMaxDigits)
	switch {
	case e.Status == "":
		errs.add("status", MsgBlank)
	case !e.Status.Valid():
		errs.add("status", MsgNotIncluded)
	}

	if e.Result != nil {
		if e.Status != EventCompleted {
			errs.add("result", MsgResultTooEarly)
		}
		if _, ok := labels[*e.Result]; !ok {
			errs.add("result", MsgNotIncluded)
		}
	}

	return errs.orNil()
}

// Settled indica evento concluído com resultado conhecido
func (e Event) Settled() bool {
	return e.Status == EventCompleted && e.Result != nil
}

// SettlementDueAfter informa se a transição prev -> e deve disparar a liquidação das apostas:
// o evento termina concluído com resultado e status ou resultado mudaram nesta atualização.
func (e Event) SettlementDueAfter(prev Event) bool {
	if !e.Settled() {
		return false
	}
	return prev.Status != e.Status || !sameResult(prev.Result, e.Result)
}

func sameResult(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EventInput são os campos aceitos na criação de um evento
type EventInput struct {
	Name      string
	StartTime time.Time
	Odds      decimal.Decimal
	Status    EventStatus
	Result    *string
}

func (in EventInput) Event() Event {
	e := Event{
		Name:      in.Name,
		StartTime: in.StartTime,
		Odds:      in.Odds,
		Status:    in.Status,
	}
	if in.Result != nil {
		r := *in.Result
		e.Result = &r
	}
	e.ApplyDefaults()
	return e
}

// EventPatch carrega apenas os campos alterados; ClearResult zera o resultado
type EventPatch struct {
	Name        *string
	StartTime   *time.Time
	Odds        *decimal.Decimal
	Status      *EventStatus
	Result      *string
	ClearResult bool
}

func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.Odds != nil {
		e.Odds = *p.Odds
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	switch {
	case p.ClearResult:
		e.Result = nil
	case p.Result != nil:
		r := *p.Result
		e.Result = &r
	}
}
