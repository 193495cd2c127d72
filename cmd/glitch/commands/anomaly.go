/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: anomaly.go
Description: Anomaly detection command implementations for the Glitch CLI.
Trains the autoencoder detector on baseline campaign metrics and scores
candidate metric windows against it.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/glitchgremlin/glitch-sdk/pkg/anomaly"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadMetricPoints reads a JSON array of metric points from a file
func loadMetricPoints(path string) ([]anomaly.MetricPoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics file: %w", err)
	}
	var points []anomaly.MetricPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to parse metrics file: %w", err)
	}
	return points, nil
}

// trainDetector builds and trains a detector from the baseline file
func trainDetector(baselinePath string) (*anomaly.Detector, error) {
	baseline, err := loadMetricPoints(baselinePath)
	if err != nil {
		return nil, err
	}

	config := anomaly.DefaultDetectorConfig()
	if epochs := viper.GetInt("anomaly.epochs"); epochs > 0 {
		config.Epochs = epochs
	}
	if sigma := viper.GetFloat64("anomaly.threshold_sigma"); sigma > 0 {
		config.ThresholdSigma = sigma
	}

	detector := anomaly.NewDetector(config, logrus.StandardLogger())
	if err := detector.Train(baseline); err != nil {
		return nil, err
	}
	return detector, nil
}

// RunAnomalyTrain trains the detector on baseline metrics and reports the
// derived threshold
func RunAnomalyTrain(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	if err := SetupLogging(); err != nil {
		return err
	}

	detector, err := trainDetector(viper.GetString("anomaly.baseline"))
	if err != nil {
		return err
	}

	fmt.Printf("Detector trained\n")
	fmt.Printf("  Threshold: %.6f\n", detector.Threshold())
	return nil
}

// RunAnomalyDetect trains on the baseline and scores candidate metric windows
func RunAnomalyDetect(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	if err := SetupLogging(); err != nil {
		return err
	}

	detector, err := trainDetector(viper.GetString("anomaly.baseline"))
	if err != nil {
		return err
	}

	candidates, err := loadMetricPoints(viper.GetString("anomaly.input"))
	if err != nil {
		return err
	}

	anomalies := 0
	for i, point := range candidates {
		flagged, score, err := detector.Detect(point)
		if err != nil {
			return err
		}
		marker := " "
		if flagged {
			marker = "!"
			anomalies++
		}
		fmt.Printf("%s window %d: score=%.6f threshold=%.6f\n", marker, i, score, detector.Threshold())
	}

	fmt.Printf("\n%d of %d windows anomalous\n", anomalies, len(candidates))
	return nil
}
