package channels

// Canais de notificação de ciclo de vida (Redis Pub/Sub).
// Os nomes são contrato com consumidores externos (leaderboard, dashboards) e não podem mudar.
const (
	// Events
	EventCreated = "event_created"
	EventUpdated = "event_updated"
	EventDeleted = "event_deleted"

	// Bets
	BetCreated        = "bet_created"
	BetUpdated        = "bet_updated"
	BetDeleted        = "bet_deleted"
	BetWinningUpdated = "bet_winning_updated"
)

// All lista todos os canais, usado por quem assina o fan-out completo
var All = []string{
	EventCreated,
	EventUpdated,
	EventDeleted,
	BetCreated,
	BetUpdated,
	BetDeleted,
	BetWinningUpdated,
}
