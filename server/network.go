package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	psnet "github.com/shirou/gopsutil/v3/net"
	"k8s.io/klog/v2"
)

// networkCollector reports host network throughput alongside the cache
// disk-utilization gauge, adapted from the teacher's metrics/net-collector.go
// netCollector. Unlike the teacher's version this tracks every interface
// unconditionally: a game server has no notion of a single "the" NIC to
// whitelist, so there is no configurable interface subset.
type networkCollector struct {
	mutex     sync.Mutex
	lastStats map[string]networkSample

	recvBytesTotalDesc *prometheus.Desc
	sentBytesTotalDesc *prometheus.Desc
	recvRateDesc       *prometheus.Desc
	sentRateDesc       *prometheus.Desc
	errorDesc          *prometheus.Desc
}

type networkSample struct {
	recvBytes uint64
	sentBytes uint64
	time      time.Time
}

// NewNetworkCollector builds a collector reporting per-interface byte
// counters and throughput rates. Call RegisterNetworkCollector to attach
// it to the default Prometheus registry.
func NewNetworkCollector() prometheus.Collector {
	return &networkCollector{
		lastStats: make(map[string]networkSample),
		recvBytesTotalDesc: prometheus.NewDesc("coreserver_net_receive_bytes_total",
			"Total bytes received on this interface.", []string{"interface"}, nil),
		sentBytesTotalDesc: prometheus.NewDesc("coreserver_net_send_bytes_total",
			"Total bytes sent on this interface.", []string{"interface"}, nil),
		recvRateDesc: prometheus.NewDesc("coreserver_net_receive_rate_bytes_per_second",
			"Current receive rate on this interface.", []string{"interface"}, nil),
		sentRateDesc: prometheus.NewDesc("coreserver_net_send_rate_bytes_per_second",
			"Current send rate on this interface.", []string{"interface"}, nil),
		errorDesc: prometheus.NewDesc("coreserver_net_collector_error",
			"Indicates an error occurred during network stats collection.", nil, nil),
	}
}

// RegisterNetworkCollector registers a networkCollector with prometheus's
// default registry. Safe to call once per process.
func RegisterNetworkCollector() {
	prometheus.MustRegister(NewNetworkCollector())
}

func (c *networkCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recvBytesTotalDesc
	ch <- c.sentBytesTotalDesc
	ch <- c.recvRateDesc
	ch <- c.sentRateDesc
	ch <- c.errorDesc
}

func (c *networkCollector) Collect(ch chan<- prometheus.Metric) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ioStats, err := psnet.IOCounters(true)
	if err != nil {
		klog.V(4).Infof("net collector: %v", err)
		ch <- prometheus.NewInvalidMetric(c.errorDesc, err)
		return
	}

	now := time.Now()
	for _, stats := range ioStats {
		ch <- prometheus.MustNewConstMetric(c.recvBytesTotalDesc, prometheus.CounterValue,
			float64(stats.BytesRecv), stats.Name)
		ch <- prometheus.MustNewConstMetric(c.sentBytesTotalDesc, prometheus.CounterValue,
			float64(stats.BytesSent), stats.Name)

		if last, ok := c.lastStats[stats.Name]; ok {
			duration := now.Sub(last.time).Seconds()
			if duration > 0 {
				recvRate := max0(float64(stats.BytesRecv-last.recvBytes) / duration)
				sentRate := max0(float64(stats.BytesSent-last.sentBytes) / duration)
				ch <- prometheus.MustNewConstMetric(c.recvRateDesc, prometheus.GaugeValue, recvRate, stats.Name)
				ch <- prometheus.MustNewConstMetric(c.sentRateDesc, prometheus.GaugeValue, sentRate, stats.Name)
			}
		}

		c.lastStats[stats.Name] = networkSample{
			recvBytes: stats.BytesRecv,
			sentBytes: stats.BytesSent,
			time:      now,
		}
	}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
