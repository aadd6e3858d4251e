// middleware/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnknownAction labels dispatches that did not resolve to a registered action,
// so arbitrary client tokens never become label values.
const UnknownAction = "unknown"

// ObserveDispatch records one finished dispatch.
func ObserveDispatch(action, method string, status int, elapsed time.Duration) {
	if action == "" {
		action = UnknownAction
	}
	dispatchTotal.WithLabelValues(action, method, strconv.Itoa(status)).Inc()
	dispatchDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Handler serves the default registry for /metrics; provided to fx under
// name:"metrics".
func Handler() http.Handler { return promhttp.Handler() }
