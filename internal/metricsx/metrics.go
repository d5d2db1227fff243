package metricsx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_orders_created_total",
		Help: "Orders created, by payment flow.",
	}, []string{"flow"}) // online | pay_at_store

	WebhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_webhook_outcomes_total",
		Help: "Payment notification outcomes after reconciliation.",
	}, []string{"outcome"}) // applied | replayed | unmatched | unrecognized | rejected_signature | malformed | error

	PickupConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_pickups_confirmed_total",
		Help: "Successful pickup confirmations.",
	})

	StockOversold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_stock_oversold_total",
		Help: "Settlement lines that found less stock than sold (clamped to zero).",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
