package dto

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
)

var validate = validator.New()

// ValidID confere o formato dos ids de rota (uuid)
func ValidID(id string) bool {
	return validate.Var(id, "required,uuid") == nil
}

type CreateEventRequest struct {
	Name      string          `json:"name" validate:"max=255"`
	StartTime time.Time       `json:"start_time"`
	Odds      decimal.Decimal `json:"odds"`
	Status    string          `json:"status" validate:"max=32"`
	Result    *string         `json:"result" validate:"omitempty,max=64"`
}

func (r *CreateEventRequest) Validate() error {
	return validate.Struct(r)
}

func (r CreateEventRequest) Input() model.EventInput {
	return model.EventInput{
		Name:      r.Name,
		StartTime: r.StartTime,
		Odds:      r.Odds,
		Status:    model.EventStatus(r.Status),
		Result:    r.Result,
	}
}

// UpdateEventRequest: result guarda o JSON cru para distinguir ausente de null
type UpdateEventRequest struct {
	Name      *string          `json:"name" validate:"omitempty,max=255"`
	StartTime *time.Time       `json:"start_time"`
	Odds      *decimal.Decimal `json:"odds"`
	Status    *string          `json:"status" validate:"omitempty,max=32"`
	Result    json.RawMessage  `json:"result"`
}

var ErrBadResult = errors.New("result must be a string or null")

func (r *UpdateEventRequest) Validate() error {
	return validate.Struct(r)
}

func (r UpdateEventRequest) Patch() (model.EventPatch, error) {
	p := model.EventPatch{
		Name:      r.Name,
		StartTime: r.StartTime,
		Odds:      r.Odds,
	}
	if r.Status != nil {
		st := model.EventStatus(*r.Status)
		p.Status = &st
	}

	if len(r.Result) > 0 {
		if string(r.Result) == "null" {
			p.ClearResult = true
			return p, nil
		}
		var res string
		if err := json.Unmarshal(r.Result, &res); err != nil {
			return model.EventPatch{}, ErrBadResult
		}
		if err := validate.Var(res, "max=64"); err != nil {
			return model.EventPatch{}, err
		}
		p.Result = &res
	}
	return p, nil
}

type CreateBetRequest struct {
	UserID           string          `json:"user_id" validate:"required,max=64"`
	EventID          string          `json:"event_id" validate:"required,uuid"`
	Amount           decimal.Decimal `json:"amount"`
	Odds             decimal.Decimal `json:"odds"`
	PredictedOutcome string          `json:"predicted_outcome" validate:"required,max=64"`
	Status           string          `json:"status" validate:"max=32"`
}

func (r *CreateBetRequest) Validate() error {
	return validate.Struct(r)
}

func (r CreateBetRequest) Input() model.BetInput {
	return model.BetInput{
		UserID:           r.UserID,
		EventID:          r.EventID,
		Amount:           r.Amount,
		Odds:             r.Odds,
		PredictedOutcome: r.PredictedOutcome,
		Status:           model.BetStatus(r.Status),
	}
}

type UpdateBetRequest struct {
	Amount           *decimal.Decimal `json:"amount"`
	Odds             *decimal.Decimal `json:"odds"`
	PredictedOutcome *string          `json:"predicted_outcome" validate:"omitempty,max=64"`
	Status           *string          `json:"status" validate:"omitempty,max=32"`
}

func (r *UpdateBetRequest) Validate() error {
	return validate.Struct(r)
}

func (r UpdateBetRequest) Patch() model.BetPatch {
	p := model.BetPatch{
		Amount:           r.Amount,
		Odds:             r.Odds,
		PredictedOutcome: r.PredictedOutcome,
	}
	if r.Status != nil {
		st := model.BetStatus(*r.Status)
		p.Status = &st
	}
	return p
}
