package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "smartir"

	resultCaptured = "captured"
	resultTimeout  = "timeout"
)

// Collector tracks learning session progress. A nil Collector is
// valid and records nothing.
type Collector struct {
	mu sync.RWMutex

	commandsLearned    map[string]float64 // key: result
	cellsSkipped       float64
	lastCaptureSeconds float64
	lastUpdateTime     time.Time

	// Prometheus metric descriptors
	commandsLearnedDesc     *prometheus.Desc
	cellsSkippedDesc        *prometheus.Desc
	lastCaptureDurationDesc *prometheus.Desc
	lastUpdateTimestampDesc *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		commandsLearned: make(map[string]float64),

		// Define metric descriptors
		commandsLearnedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "learn", "commands_total"),
			"Total number of capture attempts by result",
			[]string{"result"}, nil,
		),
		cellsSkippedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "learn", "cells_skipped_total"),
			"Total number of matrix cells skipped because they were already learned",
			nil, nil,
		),
		lastCaptureDurationDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "learn", "last_capture_duration_seconds"),
			"Duration of the most recent capture attempt in seconds",
			nil, nil,
		),
		lastUpdateTimestampDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "learn", "last_update_timestamp"),
			"Timestamp of the last collector update",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commandsLearnedDesc
	ch <- c.cellsSkippedDesc
	ch <- c.lastCaptureDurationDesc
	ch <- c.lastUpdateTimestampDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for result, count := range c.commandsLearned {
		ch <- prometheus.MustNewConstMetric(
			c.commandsLearnedDesc,
			prometheus.CounterValue,
			count,
			result,
		)
	}
	ch <- prometheus.MustNewConstMetric(
		c.cellsSkippedDesc,
		prometheus.CounterValue,
		c.cellsSkipped,
	)
	ch <- prometheus.MustNewConstMetric(
		c.lastCaptureDurationDesc,
		prometheus.GaugeValue,
		c.lastCaptureSeconds,
	)
	ch <- prometheus.MustNewConstMetric(
		c.lastUpdateTimestampDesc,
		prometheus.GaugeValue,
		float64(c.lastUpdateTime.Unix()),
	)
}

// CommandLearned records one capture attempt and its duration.
func (c *Collector) CommandLearned(captured bool, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	result := resultTimeout
	if captured {
		result = resultCaptured
	}
	c.commandsLearned[result]++
	c.lastCaptureSeconds = duration.Seconds()
	c.lastUpdateTime = time.Now()
}

// CellSkipped records one skipped matrix cell.
func (c *Collector) CellSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cellsSkipped++
	c.lastUpdateTime = time.Now()
}
