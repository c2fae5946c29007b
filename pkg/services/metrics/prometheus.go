package metrics

import (
	"net/http"

	"github.com/aurora-is-near/aurora-go/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a service exposing client metrics (RPC calls,
// nonce cache) from the default registry on every configured address.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log),
	})
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{Addr: addr, Handler: handler}
	}
	return NewService("Prometheus", srvs, cfg, log)
}
