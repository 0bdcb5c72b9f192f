package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_notifications_total",
			Help: "Notificações de ciclo de vida publicadas por canal e resultado",
		},
		[]string{"channel", "result"},
	)

	payoutSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payout_submissions_total",
			Help: "Itens de pagamento enviados ao dispatcher por resultado",
		},
		[]string{"result"},
	)

	betsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_bets_settled_total",
			Help: "Apostas liquidadas por desfecho (won|lost|failed)",
		},
		[]string{"outcome"},
	)

	eventSettlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_event_duration_ms",
			Help:    "Duração da liquidação de todas as apostas de um evento (ms)",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result"},
	)

	payoutWorkerTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_worker_messages_total",
			Help: "Mensagens do payout-worker por estágio (consumed|credited|duplicate|error_*)",
		},
		[]string{"stage"},
	)

	broadcasterClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lifecycle_broadcaster_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
)

// resultLabel normaliza erro em "success" | "fail"
func resultLabel(err error) string {
	if err != nil {
		return "fail"
	}
	return "success"
}

func RecordNotification(channel string, err error) {
	notificationsTotal.WithLabelValues(channel, resultLabel(err)).Inc()
}

func RecordPayoutSubmission(err error) {
	payoutSubmissionsTotal.WithLabelValues(resultLabel(err)).Inc()
}

func RecordBetSettled(outcome string) {
	betsSettledTotal.WithLabelValues(outcome).Inc()
}

// RecordEventSettlement registra a duração da liquidação de um evento.
// partial=true quando ao menos uma aposta falhou.
func RecordEventSettlement(partial bool, started time.Time) {
	res := "success"
	if partial {
		res = "partial"
	}
	eventSettlementDuration.WithLabelValues(res).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordPayoutWorker(stage string) {
	payoutWorkerTotal.WithLabelValues(stage).Inc()
}

func BroadcasterClientConnected()    { broadcasterClients.Inc() }
func BroadcasterClientDisconnected() { broadcasterClients.Dec() }
