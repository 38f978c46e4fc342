package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency  = metric.NewHistogram("1m1s")
	RecomputeLatency = metric.NewHistogram("1m1s")
	AdvertsSent      = metric.NewCounter("10s1s")
	AdvertsReceived  = metric.NewCounter("10s1s")
	PacketsForwarded = metric.NewCounter("10s1s")
	PacketsDropped   = metric.NewCounter("10s1s")
	LinkPacketsLost  = metric.NewCounter("10s1s")
	ProbesDelivered  = metric.NewCounter("1m1s")
	ProbesLost       = metric.NewCounter("1m1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("dvr:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("dvr:RecomputeLatency (µs)", RecomputeLatency)

	expvar.Publish("dvr:AdvertsSent/s", AdvertsSent)
	expvar.Publish("dvr:AdvertsReceived/s", AdvertsReceived)
	expvar.Publish("dvr:PacketsForwarded/s", PacketsForwarded)
	expvar.Publish("dvr:PacketsDropped/s", PacketsDropped)
	expvar.Publish("dvr:LinkPacketsLost/s", LinkPacketsLost)
	expvar.Publish("dvr:ProbesDelivered", ProbesDelivered)
	expvar.Publish("dvr:ProbesLost", ProbesLost)
}
