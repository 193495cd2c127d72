/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Campaign metrics collection for anomaly detection. Folds chaos
results into fixed-size windows and emits per-window feature vectors
(transaction rate, error rate, average compute units, finding rate) for the
autoencoder-based detector.
*/

package anomaly

import (
	"sync"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
)

// FeatureDim is the number of features per metric point
const FeatureDim = 4

// MetricPoint is one window of campaign behavior
type MetricPoint struct {
	TxRate      float64 `json:"tx_rate"`      // Results per second in the window
	ErrorRate   float64 `json:"error_rate"`   // Fraction of results with a program error
	AvgUnits    float64 `json:"avg_units"`    // Mean compute units per result
	FindingRate float64 `json:"finding_rate"` // Fraction classified above info severity
}

// Vector returns the point as a feature vector for the detector
func (p MetricPoint) Vector() []float64 {
	return []float64{p.TxRate, p.ErrorRate, p.AvgUnits, p.FindingRate}
}

// Collector folds chaos results into metric windows. It implements the
// campaign engine's ResultObserver contract.
type Collector struct {
	mu         sync.Mutex
	windowSize int
	now        func() time.Time

	windowStart time.Time
	count       int
	errors      int
	findings    int
	totalUnits  uint64
	points      []MetricPoint
}

// NewCollector creates a collector that closes a window every windowSize
// results
func NewCollector(windowSize int) *Collector {
	if windowSize <= 0 {
		windowSize = 50
	}
	return &Collector{
		windowSize: windowSize,
		now:        time.Now,
	}
}

// SetNowFunc overrides the time source, for tests
func (c *Collector) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Observe folds one result into the current window
func (c *Collector) Observe(result interfaces.ChaosResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		c.windowStart = c.now()
	}
	c.count++
	c.totalUnits += result.UnitsConsumed
	if result.Err != "" {
		c.errors++
	}
	if result.Severity != "" && result.Severity != "info" {
		c.findings++
	}

	if c.count >= c.windowSize {
		c.closeWindowLocked()
	}
}

// Flush closes the current partial window, if any
func (c *Collector) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count > 0 {
		c.closeWindowLocked()
	}
}

func (c *Collector) closeWindowLocked() {
	elapsed := c.now().Sub(c.windowStart).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	n := float64(c.count)

	c.points = append(c.points, MetricPoint{
		TxRate:      n / elapsed,
		ErrorRate:   float64(c.errors) / n,
		AvgUnits:    float64(c.totalUnits) / n,
		FindingRate: float64(c.findings) / n,
	})

	c.count = 0
	c.errors = 0
	c.findings = 0
	c.totalUnits = 0
}

// Points returns the closed windows collected so far
func (c *Collector) Points() []MetricPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MetricPoint, len(c.points))
	copy(out, c.points)
	return out
}
