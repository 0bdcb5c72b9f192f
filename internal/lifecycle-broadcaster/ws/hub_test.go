package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/pkg/contracts/channels"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop(), channels.All, func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// send envia a mensagem e espera o pong, garantindo que o hub já a processou
func send(t *testing.T, conn *websocket.Conn, msgs ...ClientMsg) {
	t.Helper()
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	for {
		var resp ServerMsg
		readJSON(t, conn, &resp)
		if resp.Type == "pong" {
			return
		}
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestHub_ForwardsToSubscribers(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	send(t, conn, ClientMsg{Type: "subscribe", Channel: channels.BetWinningUpdated})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan *redis.Message, 3)
	go forward(ctx, ch, hub, zap.NewNop())

	ch <- &redis.Message{Channel: channels.BetUpdated, Payload: `{"id":"b1"}`}
	ch <- &redis.Message{Channel: channels.BetWinningUpdated, Payload: `not json`}
	ch <- &redis.Message{Channel: channels.BetWinningUpdated, Payload: `{"user_id":"u1","winnings":"250"}`}

	var upd Update
	readJSON(t, conn, &upd)
	if upd.Channel != channels.BetWinningUpdated {
		t.Fatalf("channel = %q", upd.Channel)
	}
	if string(upd.Payload) != `{"user_id":"u1","winnings":"250"}` {
		t.Fatalf("payload = %s", upd.Payload)
	}
}

func TestHub_RejectsUnknownChannel(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Channel: "odds_updates"}); err != nil {
		t.Fatal(err)
	}
	var resp ServerMsg
	readJSON(t, conn, &resp)
	if resp.Type != "error" || resp.Channel != "odds_updates" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if n := hub.Subscribers("odds_updates"); n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
}

func TestHub_UnsubscribeAndDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)

	send(t, a, ClientMsg{Type: "subscribe", Channel: channels.EventUpdated})
	send(t, b, ClientMsg{Type: "subscribe", Channel: channels.EventUpdated})
	if n := hub.Subscribers(channels.EventUpdated); n != 2 {
		t.Fatalf("subscribers = %d", n)
	}

	send(t, a, ClientMsg{Type: "unsubscribe", Channel: channels.EventUpdated})
	if n := hub.Subscribers(channels.EventUpdated); n != 1 {
		t.Fatalf("subscribers after unsubscribe = %d", n)
	}

	_ = b.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(channels.EventUpdated) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("disconnected client still subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
