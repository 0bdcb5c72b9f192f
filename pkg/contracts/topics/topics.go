package topics

const (
	// Payouts
	ProcessWinnings = "process_winnings"

	// DLQs
	ProcessWinningsDLQ = "process_winnings_dlq"
)
