package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(promoRedemptionsTotal)
}

var promoRedemptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "promo_redemptions_total",
		Help: "Promo redemption attempts by result (ok or the failed rule).",
	},
	[]string{"result"},
)

func IncPromoRedemption(result string) {
	promoRedemptionsTotal.WithLabelValues(norm(result)).Inc()
}
