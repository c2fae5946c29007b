package rpcclient

import (
	"strings"
	"time"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	rpcCounter = map[string]prometheus.Counter{}
	rpcErrors  = map[string]prometheus.Counter{}
	rpcTimes   = map[string]prometheus.Histogram{}
)

func addReqTimeMetric(name string, t time.Duration, ok bool) {
	hist, found := rpcTimes[name]
	if found {
		hist.Observe(t.Seconds())
	}
	ctr, found := rpcCounter[name]
	if found {
		ctr.Inc()
	}
	if !ok {
		if ctr, found := rpcErrors[name]; found {
			ctr.Inc()
		}
	}
}

func regCounter(call string) {
	rpcCounter[call] = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of " + call + " requests sent",
			Name:      "rpc_" + call + "_requests",
			Namespace: "aurora",
		},
	)
	prometheus.MustRegister(rpcCounter[call])
	rpcErrors[call] = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of failed " + call + " requests",
			Name:      "rpc_" + call + "_errors",
			Namespace: "aurora",
		},
	)
	prometheus.MustRegister(rpcErrors[call])
	rpcTimes[call] = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "RPC " + call + " request time",
			Name:      "rpc_" + strings.ToLower(call) + "_time",
			Namespace: "aurora",
		},
	)
	prometheus.MustRegister(rpcTimes[call])
}

func init() {
	for _, call := range []string{
		nearrpc.MethodQuery,
		nearrpc.MethodBlock,
		nearrpc.MethodBroadcastTxCommit,
		nearrpc.MethodBroadcastTxAsync,
		nearrpc.MethodTx,
		nearrpc.MethodLightClientProof,
	} {
		regCounter(call)
	}
}
