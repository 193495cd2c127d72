/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: detector.go
Description: Anomaly detector for chaos campaign metrics. Min-max scales
metric vectors, trains the autoencoder on baseline behavior, and flags
vectors whose reconstruction error exceeds a threshold derived from the
training distribution.
*/

package anomaly

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// minMaxScaler maps each feature dimension into [0, 1] using the bounds
// observed during training, clamping out-of-range values
type minMaxScaler struct {
	min []float64
	max []float64
}

func fitScaler(samples [][]float64, dim int) *minMaxScaler {
	s := &minMaxScaler{
		min: make([]float64, dim),
		max: make([]float64, dim),
	}
	for d := 0; d < dim; d++ {
		s.min[d] = math.Inf(1)
		s.max[d] = math.Inf(-1)
	}
	for _, sample := range samples {
		for d, v := range sample {
			s.min[d] = math.Min(s.min[d], v)
			s.max[d] = math.Max(s.max[d], v)
		}
	}
	return s
}

func (s *minMaxScaler) scale(sample []float64) []float64 {
	out := make([]float64, len(sample))
	for d, v := range sample {
		span := s.max[d] - s.min[d]
		if span == 0 {
			out[d] = 0
			continue
		}
		scaled := (v - s.min[d]) / span
		out[d] = math.Max(0, math.Min(1, scaled))
	}
	return out
}

// DetectorConfig configures model shape and training
type DetectorConfig struct {
	HiddenDim      int     // Autoencoder hidden layer width
	Epochs         int     // Training epochs
	LearningRate   float64 // SGD step size
	ThresholdSigma float64 // Threshold = mean + sigma * stddev of training errors
	Seed           int64   // Weight initialization seed
}

// DefaultDetectorConfig returns a configuration sized for the campaign
// metric vectors
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		HiddenDim:      2,
		Epochs:         400,
		LearningRate:   0.1,
		ThresholdSigma: 3.0,
		Seed:           1,
	}
}

// Detector flags anomalous metric windows by reconstruction error
type Detector struct {
	config    DetectorConfig
	model     *Autoencoder
	scaler    *minMaxScaler
	threshold float64
	trained   bool
	log       *logrus.Logger
}

// NewDetector creates an untrained detector
func NewDetector(config DetectorConfig, log *logrus.Logger) *Detector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Detector{config: config, log: log}
}

// Threshold returns the trained decision threshold
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Train fits the scaler and the autoencoder on baseline metric points and
// derives the decision threshold from the training error distribution
func (d *Detector) Train(baseline []MetricPoint) error {
	if len(baseline) < 2 {
		return fmt.Errorf("need at least 2 baseline points, got %d", len(baseline))
	}

	samples := make([][]float64, len(baseline))
	for i, p := range baseline {
		samples[i] = p.Vector()
	}

	d.scaler = fitScaler(samples, FeatureDim)
	scaled := make([][]float64, len(samples))
	for i, s := range samples {
		scaled[i] = d.scaler.scale(s)
	}

	d.model = NewAutoencoder(FeatureDim, d.config.HiddenDim, d.config.Seed)
	if err := d.model.Train(scaled, d.config.Epochs, d.config.LearningRate); err != nil {
		return err
	}

	// Threshold from the training error distribution
	errs := make([]float64, len(scaled))
	var mean float64
	for i, s := range scaled {
		e, err := d.model.ReconstructionError(s)
		if err != nil {
			return err
		}
		errs[i] = e
		mean += e
	}
	mean /= float64(len(errs))

	var variance float64
	for _, e := range errs {
		variance += (e - mean) * (e - mean)
	}
	variance /= float64(len(errs))

	d.threshold = mean + d.config.ThresholdSigma*math.Sqrt(variance)
	d.trained = true

	d.log.WithFields(logrus.Fields{
		"baseline_points": len(baseline),
		"threshold":       d.threshold,
	}).Info("Anomaly detector trained")

	return nil
}

// Score returns the reconstruction error for a metric point
func (d *Detector) Score(point MetricPoint) (float64, error) {
	if !d.trained {
		return 0, fmt.Errorf("detector is not trained")
	}
	return d.model.ReconstructionError(d.scaler.scale(point.Vector()))
}

// Detect reports whether the point is anomalous, along with its score
func (d *Detector) Detect(point MetricPoint) (bool, float64, error) {
	score, err := d.Score(point)
	if err != nil {
		return false, 0, err
	}
	anomalous := score > d.threshold
	if anomalous {
		d.log.WithFields(logrus.Fields{
			"score":     score,
			"threshold": d.threshold,
		}).Warn("Anomalous campaign window detected")
	}
	return anomalous, score, nil
}
