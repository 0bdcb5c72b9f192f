package dto

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ValidationErrorResponse lista todas as violações de uma entidade
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Field  string       `json:"field,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ReconcileResponse: FailedBetIDs vazio significa todas as apostas pendentes liquidadas
type ReconcileResponse struct {
	EventID      string   `json:"event_id"`
	FailedBetIDs []string `json:"failed_bet_ids"`
	Error        string   `json:"error,omitempty"`
}
