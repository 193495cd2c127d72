/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for the logging package. Covers configuration validation,
log file creation, the custom formatter output, and the domain-specific
logging helpers.
*/

package logging_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerConfigValidate exercises configuration validation
func TestLoggerConfigValidate(t *testing.T) {
	valid := &logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatCustom,
		OutputDir: t.TempDir(),
		MaxFiles:  5,
		MaxSize:   1024,
	}
	assert.NoError(t, valid.Validate())

	noDir := *valid
	noDir.OutputDir = ""
	assert.Error(t, noDir.Validate())

	badFormat := *valid
	badFormat.Format = "xml"
	assert.Error(t, badFormat.Validate())

	badLevel := *valid
	badLevel.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	badFiles := *valid
	badFiles.MaxFiles = 0
	assert.Error(t, badFiles.Validate())
}

// TestLoggerCreatesLogFile verifies a timestamped log file lands in the
// output directory
func TestLoggerCreatesLogFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatText,
		OutputDir: dir,
		MaxFiles:  3,
		MaxSize:   1024 * 1024,
		Timestamp: true,
	})
	require.NoError(t, err)

	logger.LogProposal("abc123", "created", map[string]interface{}{"stake": 1000})
	logger.LogVote("abc123", "def456", "yes", 150, nil)
	logger.LogRateLimit("def456", nil)
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "glitch-sdk_*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

// TestCustomFormatter verifies the single-line key=value rendering
func TestCustomFormatter(t *testing.T) {
	formatter := &logging.CustomFormatter{Timestamp: false, Colors: false}

	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Unix(1700000000, 0),
		Level:   logrus.InfoLevel,
		Message: "Proposal created",
		Data: logrus.Fields{
			"proposal": "abc",
			"stake":    uint64(1000),
			"err":      errors.New("boom"),
		},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "Proposal created")
	assert.Contains(t, line, "proposal=abc")
	assert.Contains(t, line, "stake=1000")
	assert.Contains(t, line, "err=boom")
	assert.NotContains(t, line, "\033[", "colors disabled")
}

// TestCustomFormatterTruncatesLongStrings verifies long values are shortened
func TestCustomFormatterTruncatesLongStrings(t *testing.T) {
	formatter := &logging.CustomFormatter{}

	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Now(),
		Level:   logrus.WarnLevel,
		Message: "truncation",
		Data:    logrus.Fields{"value": string(long)},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Contains(t, string(out), "...")
}
