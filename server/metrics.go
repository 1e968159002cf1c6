package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/disk"
	"k8s.io/klog/v2"
)

// connectionsActive tracks currently-admitted sessions, incremented/
// decremented by Acceptor.Serve. Grounded on the teacher's
// metrics/metrics.go promauto.NewGaugeVec pattern.
var connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "coreserver_connections_active",
	Help: "Number of currently admitted TCP sessions.",
})

// JS5QueueDepth reports how many requests are buffered in a JS5
// connection's urgent/normal channel at the moment of measurement;
// session.RunJS5's writer sets it from the channel's length after each
// dequeue.
var JS5QueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "coreserver_js5_queue_depth",
		Help: "Buffered JS5 file requests awaiting service, by priority.",
	},
	[]string{"priority"},
)

// CacheReadLatency times cache.Cache.ReadArchiveRaw calls made to answer a
// JS5 request, labeled by index.
var CacheReadLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "coreserver_cache_read_latency_seconds",
		Help:    "Latency of cache archive reads serving JS5 requests.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	},
	[]string{"index"},
)

// ObserveCacheRead records one cache read's duration under CacheReadLatency.
func ObserveCacheRead(index string, d time.Duration) {
	CacheReadLatency.WithLabelValues(index).Observe(d.Seconds())
}

// cacheDiskUtilization reports used/total bytes for the filesystem backing
// the cache directory, adapted from the teacher's
// metrics/disc-collector.go diskCollector (generalized from per-device
// I/O-rate counters, which a read-mostly memory-mapped cache has little
// use for, down to the one gauge spec.md's disk-utilization concern
// actually needs: how full is the cache volume).
var cacheDiskUtilization = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "coreserver_cache_disk_utilization_ratio",
		Help: "Fraction of the cache directory's filesystem currently in use.",
	},
	[]string{"mountpoint"},
)

// deviceForDirectory finds the mount point containing dir, matching the
// teacher's GetDeviceForDirectory lookup strategy (longest matching
// mountpoint prefix).
func deviceForDirectory(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}

	partitions, err := disk.Partitions(false)
	if err != nil {
		return "", fmt.Errorf("list partitions: %w", err)
	}

	best := ""
	for _, p := range partitions {
		if strings.HasPrefix(absDir, p.Mountpoint) && len(p.Mountpoint) > len(best) {
			best = p.Mountpoint
		}
	}
	if best == "" {
		return "", fmt.Errorf("no mount point found for %s", absDir)
	}
	return best, nil
}

// WatchCacheDiskUtilization polls the filesystem backing cacheDir every
// interval and updates cacheDiskUtilization until ctx is cancelled. If the
// mount point for cacheDir cannot be found, a warning is logged and the
// watcher returns at once. A failed sample is logged at klog.V(4) and
// skipped, matching the teacher's collector behavior of reporting a
// metrics gap rather than failing the process over a transient stat error.
func WatchCacheDiskUtilization(ctx context.Context, cacheDir string, interval time.Duration) {
	mountpoint, err := deviceForDirectory(cacheDir)
	if err != nil {
		klog.Warningf("cache disk utilization watcher disabled: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sample := func() {
		usage, err := disk.Usage(mountpoint)
		if err != nil {
			klog.V(4).Infof("cache disk usage sample failed: %v", err)
			return
		}
		cacheDiskUtilization.WithLabelValues(mountpoint).Set(usage.UsedPercent / 100)
	}

	sample()
	for {
		select {
		case <-ticker.C:
			sample()
		case <-ctx.Done():
			return
		}
	}
}
