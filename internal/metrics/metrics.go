// Package metrics holds the Prometheus counters for the credential gateway.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credential_gateway"

type Metrics struct {
	gatewayDecisions      *prometheus.CounterVec
	sessionRefreshErrors  prometheus.Counter
	callbackOutcomes      *prometheus.CounterVec
	storageRefreshes      *prometheus.CounterVec
	credentialStoreWrites *prometheus.CounterVec
	webhookValidations    *prometheus.CounterVec
}

// New registers the gateway counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatewayDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_decisions_total",
			Help:      "Session gateway policy decisions by outcome.",
		}, []string{"decision"}),
		sessionRefreshErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refresh_failures_total",
			Help:      "Session refresh calls that failed and were treated as no session.",
		}),
		callbackOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_callback_outcomes_total",
			Help:      "OAuth callback terminal outcomes.",
		}, []string{"outcome"}),
		storageRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_token_refreshes_total",
			Help:      "Storage API token refresh attempts by result.",
		}, []string{"result"}),
		credentialStoreWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_store_writes_total",
			Help:      "Credential store writes after a token refresh by result.",
		}, []string{"result"}),
		webhookValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_validations_total",
			Help:      "Voice webhook credential validations by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) GatewayDecision(decision string) {
	if m == nil {
		return
	}
	m.gatewayDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) SessionRefreshFailed() {
	if m == nil {
		return
	}
	m.sessionRefreshErrors.Inc()
}

func (m *Metrics) CallbackOutcome(outcome string) {
	if m == nil {
		return
	}
	m.callbackOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StorageRefresh(result string) {
	if m == nil {
		return
	}
	m.storageRefreshes.WithLabelValues(result).Inc()
}

// CredentialStoreWrite records the store-write half of a refresh, kept apart from StorageRefresh.
func (m *Metrics) CredentialStoreWrite(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.credentialStoreWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) WebhookValidation(valid bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.webhookValidations.WithLabelValues(result).Inc()
}
