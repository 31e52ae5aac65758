// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDenials количество отказов политики доступа.
	AuthzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "authz_denials_total",
		Help:      "Number of operations denied by the row-level authorization policy.",
	}, []string{"entity", "op", "reason"})

	// SalesCreated количество зарегистрированных продаж.
	SalesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "sales_created_total",
		Help:      "Number of sales recorded, by payment method.",
	}, []string{"payment_method"})

	// UsersProvisioned количество зарегистрированных пользователей.
	UsersProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "users_provisioned_total",
		Help:      "Number of user identities provisioned with profile and trial subscription.",
	})

	// SubscriptionsExpired количество подписок, переведённых планировщиком в expired.
	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "subscriptions_expired_total",
		Help:      "Number of subscriptions transitioned to expired by the scheduler.",
	})

	// CacheLookups обращения к кэшу товаров.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "cache_lookups_total",
		Help:      "Product cache lookups by result.",
	}, []string{"result"})
)
