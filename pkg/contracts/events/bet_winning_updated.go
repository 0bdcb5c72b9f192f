package events

import "github.com/shopspring/decimal"

// Evento emitido quando uma aposta é liquidada como vencedora.
type BetWinningUpdated struct {
	UserID   string          `json:"user_id"`
	Winnings decimal.Decimal `json:"winnings"`
}
