package events

import "github.com/shopspring/decimal"

// Mensagem publicada no tópico "process_winnings" e consumida pelo payout-worker.
type PayoutRequested struct {
	BetID    string          `json:"bet_id"`
	UserID   string          `json:"user_id"`
	Winnings decimal.Decimal `json:"winnings"`
	TsUnixMs int64           `json:"ts_unix_ms"`
}
