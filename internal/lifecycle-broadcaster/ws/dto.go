package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Channel: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"` // subscribe | unsubscribe | ping
	Channel string `json:"channel"`
}

// Update é o envelope enviado aos clientes inscritos no canal
type Update struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMsg respostas de controle (pong, erro)
type ServerMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}
