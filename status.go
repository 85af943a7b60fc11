package homework

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusHandler serves the watcher's snapshot at /status, the metrics in
// gatherer at /metrics, and a liveness probe at /healthz.
func StatusHandler(w *Watcher, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "Send requests with GET", http.StatusMethodNotAllowed)
			return
		}
		resp := struct {
			Snapshot
			Interval   string `json:"interval"`
			RetryDelay string `json:"retry_delay"`
		}{
			Snapshot:   w.Snapshot(),
			Interval:   w.Interval.String(),
			RetryDelay: w.RetryDelay.String(),
		}
		rw.Header().Set("Content-Type", "application/json")
		e := json.NewEncoder(rw)
		if err := e.Encode(resp); err != nil {
			http.Error(rw,
				fmt.Sprintf("error encoding response: %v", err),
				http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}
