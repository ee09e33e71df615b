package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookOutcomesTotal,
		paymentsRevenueTotal,
	)
}

var (
	webhookOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_outcomes_total",
			Help: "Payment webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of reconciled payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncWebhookOutcome(outcome string) {
	webhookOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddPaymentRevenue(currency string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(amount)
}
