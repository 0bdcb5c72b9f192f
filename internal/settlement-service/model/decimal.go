package model

import "github.com/shopspring/decimal"

// Escala e precisão das colunas NUMERIC em schema.sql.
// Valores fora disso seriam arredondados (ou recusados) pelo Postgres na gravação.
const (
	MoneyScale      = 2
	AmountMaxDigits = 12 // bets.amount NUMERIC(12,2)
	OddsMaxDigits   = 10 // events.odds, bets.odds NUMERIC(10,2)
)

// checkMoney exige valor positivo que caiba na coluna sem arredondamento
func (v *ValidationErrors) checkMoney(field string, d decimal.Decimal, digits int32) {
	switch {
	case !d.IsPositive():
		v.add(field, MsgNotPositive)
	case !d.Equal(d.Truncate(MoneyScale)):
		v.add(field, MsgTooPrecise)
	case d.GreaterThanOrEqual(decimal.New(1, digits-MoneyScale)):
		v.add(field, MsgTooLarge)
	}
}
