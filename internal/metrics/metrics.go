// metrics — счётчики Prometheus для краевой проверки сессии
// и обмена refresh-токена. Регистрация через promauto в
// default-реестре, отдаётся promhttp.Handler() в main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Возможные значения метки outcome для EdgeDecisions.
const (
	OutcomeFresh             = "fresh"
	OutcomeRefreshed         = "refreshed"
	OutcomeRedirectAnonymous = "redirect_anonymous"
	OutcomeRedirectFailed    = "redirect_failed"
)

// Возможные значения метки outcome для RefreshExchanges.
const (
	ExchangeOK       = "ok"
	ExchangeRejected = "rejected"
	ExchangeError    = "error"
)

var (
	// EdgeDecisions — итог проверки сессии на защищённой странице.
	EdgeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "web_gateway_edge_decisions_total",
		Help: "Решения краевой проверки сессии по исходу.",
	}, []string{"outcome"})

	// RefreshExchanges — исход обмена refresh-токена на новую пару.
	RefreshExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "web_gateway_refresh_exchanges_total",
		Help: "Обмены refresh-токена по исходу.",
	}, []string{"outcome"})
)
