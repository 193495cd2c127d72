/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine_test.go
Description: Tests for the chaos campaign engine and the failure classifier.
Covers campaign execution against the in-memory chain, finding collection,
severity filtering, observer notification, context cancellation, and the
signature lookup table.
*/

package chaos_test

import (
	"context"
	"sync"
	"testing"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/chaos"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campaignConfig(iterations int) chaos.CampaignConfig {
	var target, payer interfaces.Address
	target[0] = 7
	payer[0] = 9
	return chaos.CampaignConfig{
		TargetProgram: target,
		Payer:         payer,
		Iterations:    iterations,
		Workers:       2,
		MutationRate:  0.2,
		ChainLength:   2,
		SeedPayloads:  [][]byte{{0, 1, 2, 3, 4, 5, 6, 7}},
	}
}

func testMutators() []interfaces.Mutator {
	return []interfaces.Mutator{
		strategies.NewBitFlipMutator(0.2),
		strategies.NewByteSubstitutionMutator(0.2),
	}
}

// countingObserver records every result it sees
type countingObserver struct {
	mu      sync.Mutex
	results []interfaces.ChaosResult
}

func (o *countingObserver) Observe(result interfaces.ChaosResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *countingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.results)
}

// TestCampaignAllSuccess verifies a clean target produces no findings
func TestCampaignAllSuccess(t *testing.T) {
	backend := chain.NewMemoryChain()
	engine := chaos.NewEngine(campaignConfig(50), backend, nil, testMutators(), nil)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(50), report.Stats.Executions)
	assert.Equal(t, int64(0), report.Stats.Failures)
	assert.Equal(t, int64(0), report.Stats.Findings)
	assert.Empty(t, report.Findings)
	assert.NotEmpty(t, report.CampaignID)
}

// TestCampaignFindings verifies program failures are classified and recorded
func TestCampaignFindings(t *testing.T) {
	backend := chain.NewMemoryChain()
	backend.SetSimulationResult(&interfaces.SimulationResult{
		Err:           "Program failed: arithmetic overflow in transfer",
		Logs:          []string{"Program log: transfer"},
		UnitsConsumed: 1200,
	})

	engine := chaos.NewEngine(campaignConfig(20), backend, nil, testMutators(), nil)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(20), report.Stats.Executions)
	assert.Equal(t, int64(20), report.Stats.Failures)
	assert.Equal(t, int64(20), report.Stats.Findings)
	require.NotEmpty(t, report.Findings)
	assert.Equal(t, "integer-overflow", report.Findings[0].Category)
	assert.Equal(t, chaos.SeverityCritical, report.Findings[0].Severity)
}

// TestCampaignInfoFailuresNotFindings verifies unclassified failures are
// counted as failures but never reported as findings
func TestCampaignInfoFailuresNotFindings(t *testing.T) {
	backend := chain.NewMemoryChain()
	backend.SetSimulationResult(&interfaces.SimulationResult{
		Err: "some entirely novel failure mode",
	})

	engine := chaos.NewEngine(campaignConfig(10), backend, nil, testMutators(), nil)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), report.Stats.Failures)
	assert.Equal(t, int64(0), report.Stats.Findings)
	assert.Empty(t, report.Findings)
}

// TestCampaignObservers verifies every result reaches registered observers
func TestCampaignObservers(t *testing.T) {
	backend := chain.NewMemoryChain()
	engine := chaos.NewEngine(campaignConfig(30), backend, nil, testMutators(), nil)

	obs := &countingObserver{}
	engine.AddObserver(obs)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, obs.count())
}

// TestCampaignCancellation verifies a cancelled context stops the feed early
func TestCampaignCancellation(t *testing.T) {
	backend := chain.NewMemoryChain()
	engine := chaos.NewEngine(campaignConfig(100000), backend, nil, testMutators(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Less(t, report.Stats.Executions, int64(100000))
}

// TestCampaignTargetedFaultInjection verifies the per-transaction simulation
// hook drives finding classification
func TestCampaignTargetedFaultInjection(t *testing.T) {
	backend := chain.NewMemoryChain()
	backend.SetSimulationFunc(func(tx *interfaces.Transaction) *interfaces.SimulationResult {
		// Fail only payloads whose first byte survived mutation.
		if len(tx.Instructions) > 0 && len(tx.Instructions[0].Data) > 0 && tx.Instructions[0].Data[0] == 0 {
			return &interfaces.SimulationResult{Err: "Error: missing required signature for instruction"}
		}
		return &interfaces.SimulationResult{Logs: []string{"Program log: ok"}}
	})

	engine := chaos.NewEngine(campaignConfig(40), backend, nil, testMutators(), nil)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	for _, finding := range report.Findings {
		assert.Equal(t, "signer-check-bypass", finding.Category)
		assert.Equal(t, chaos.SeverityCritical, finding.Severity)
	}
}

// TestClassifierTable exercises the signature lookup table
func TestClassifierTable(t *testing.T) {
	c := chaos.NewClassifier()

	cases := []struct {
		err      string
		category string
		severity string
	}{
		{"Program failed: arithmetic overflow", "integer-overflow", chaos.SeverityCritical},
		{"value overflow detected", "integer-overflow", chaos.SeverityHigh},
		{"subtraction underflow", "integer-underflow", chaos.SeverityHigh},
		{"Error: missing required signature", "signer-check-bypass", chaos.SeverityCritical},
		{"unauthorized access attempt", "access-control", chaos.SeverityCritical},
		{"account owner does not match", "owner-check-bypass", chaos.SeverityCritical},
		{"insufficient funds for transfer", "balance-validation", chaos.SeverityMedium},
		{"invalid account data for instruction", "deserialization", chaos.SeverityMedium},
		{"custom program error: 0x1", "program-error", chaos.SeverityLow},
		{"something never seen before", "unclassified", chaos.SeverityInfo},
	}

	for _, tc := range cases {
		category, severity := c.Classify(tc.err, nil)
		assert.Equal(t, tc.category, category, "error %q", tc.err)
		assert.Equal(t, tc.severity, severity, "error %q", tc.err)
	}
}

// TestClassifierCaseInsensitive verifies matching ignores case
func TestClassifierCaseInsensitive(t *testing.T) {
	c := chaos.NewClassifier()
	category, severity := c.Classify("ARITHMETIC OVERFLOW", nil)
	assert.Equal(t, "integer-overflow", category)
	assert.Equal(t, chaos.SeverityCritical, severity)
}

// TestClassifierLogs verifies signatures in program logs are matched when the
// error string is uninformative
func TestClassifierLogs(t *testing.T) {
	c := chaos.NewClassifier()
	category, severity := c.Classify("custom error", []string{
		"Program log: instruction begin",
		"Program log: arithmetic overflow at transfer",
	})
	assert.Equal(t, "integer-overflow", category)
	assert.Equal(t, chaos.SeverityCritical, severity)
}

// TestClassifierCustomSignature verifies custom signatures extend the table
func TestClassifierCustomSignature(t *testing.T) {
	c := chaos.NewClassifier()
	c.AddSignature("reentrancy detected", "reentrancy", chaos.SeverityCritical)

	category, severity := c.Classify("Reentrancy Detected in vault", nil)
	assert.Equal(t, "reentrancy", category)
	assert.Equal(t, chaos.SeverityCritical, severity)
}
