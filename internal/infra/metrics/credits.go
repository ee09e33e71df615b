package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		creditDebitsTotal,
		creditCreditsTotal,
		creditsSpentTotal,
		creditsGrantedTotal,
	)
}

var (
	creditDebitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_debits_total",
			Help: "Ledger debit attempts by outcome (ok/insufficient/error).",
		},
		[]string{"outcome"},
	)

	creditCreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_credits_total",
			Help: "Ledger credit operations by reason (refund/purchase/promo/signup).",
		},
		[]string{"reason"},
	)

	creditsSpentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_spent_total",
			Help: "Sum of credits successfully debited.",
		},
	)

	creditsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Sum of credits granted, labeled by reason.",
		},
		[]string{"reason"},
	)
)

func IncDebit(outcome string) {
	creditDebitsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCredit(reason string) {
	creditCreditsTotal.WithLabelValues(norm(reason)).Inc()
}

func AddCreditsSpent(amount float64) {
	creditsSpentTotal.Add(amount)
}

func AddCreditsGranted(reason string, amount float64) {
	creditsGrantedTotal.WithLabelValues(norm(reason)).Add(amount)
}
