/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Chaos campaign engine for the Glitch Gremlin SDK. Drives the
mutation strategies against a target program through transaction simulation,
classifies failures with the heuristic signature table, and tracks campaign
statistics with atomic counters for concurrent workers.
*/

package chaos

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/strategies"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CampaignConfig configures one chaos campaign against a target program
type CampaignConfig struct {
	TargetProgram interfaces.Address // Program under test
	Payer         interfaces.Address // Fee payer placed in simulated transactions
	Iterations    int                // Total test cases to run
	Workers       int                // Parallel workers (0 = 4)
	MutationRate  float64            // Per-element mutation probability
	ChainLength   int                // Mutators applied per test case
	SeedPayloads  [][]byte           // Seed instruction payloads
}

// CampaignStats tracks campaign progress. All counters are atomic so
// concurrent workers can update them without locks.
type CampaignStats struct {
	Executions    int64     `json:"executions"`
	Failures      int64     `json:"failures"`
	Findings      int64     `json:"findings"` // Failures with a non-info classification
	UnitsConsumed int64     `json:"units_consumed"`
	StartTime     time.Time `json:"start_time"`
}

// IncrementExecutions atomically increments the execution counter
func (s *CampaignStats) IncrementExecutions() {
	atomic.AddInt64(&s.Executions, 1)
}

// IncrementFailures atomically increments the failure counter
func (s *CampaignStats) IncrementFailures() {
	atomic.AddInt64(&s.Failures, 1)
}

// IncrementFindings atomically increments the finding counter
func (s *CampaignStats) IncrementFindings() {
	atomic.AddInt64(&s.Findings, 1)
}

// AddUnitsConsumed atomically accumulates compute units
func (s *CampaignStats) AddUnitsConsumed(units uint64) {
	atomic.AddInt64(&s.UnitsConsumed, int64(units))
}

// Snapshot returns a consistent copy of the counters
func (s *CampaignStats) Snapshot() CampaignStats {
	return CampaignStats{
		Executions:    atomic.LoadInt64(&s.Executions),
		Failures:      atomic.LoadInt64(&s.Failures),
		Findings:      atomic.LoadInt64(&s.Findings),
		UnitsConsumed: atomic.LoadInt64(&s.UnitsConsumed),
		StartTime:     s.StartTime,
	}
}

// CampaignReport is the final outcome of a campaign run
type CampaignReport struct {
	CampaignID string                   `json:"campaign_id"`
	Target     string                   `json:"target"`
	Stats      CampaignStats            `json:"stats"`
	Findings   []interfaces.ChaosResult `json:"findings"`
	Duration   time.Duration            `json:"duration"`
}

// ResultObserver receives every chaos result as it is produced. The anomaly
// metrics collector implements this to build its feature windows.
type ResultObserver interface {
	Observe(result interfaces.ChaosResult)
}

// Engine runs chaos campaigns
type Engine struct {
	config     CampaignConfig
	sender     interfaces.TransactionSender
	classifier *Classifier
	mutators   []interfaces.Mutator
	observers  []ResultObserver
	log        *logrus.Logger

	stats      CampaignStats
	findingsMu sync.Mutex
	findings   []interfaces.ChaosResult
}

// NewEngine creates a chaos campaign engine
func NewEngine(config CampaignConfig, sender interfaces.TransactionSender, classifier *Classifier, mutators []interfaces.Mutator, log *logrus.Logger) *Engine {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		config:     config,
		sender:     sender,
		classifier: classifier,
		mutators:   mutators,
		log:        log,
	}
}

// AddObserver registers a result observer. Must be called before Run.
func (e *Engine) AddObserver(obs ResultObserver) {
	e.observers = append(e.observers, obs)
}

// GetStats returns a snapshot of the campaign counters
func (e *Engine) GetStats() CampaignStats {
	return e.stats.Snapshot()
}

// Run executes the campaign until the iteration budget is exhausted or the
// context is cancelled, and returns the final report
func (e *Engine) Run(ctx context.Context) (*CampaignReport, error) {
	if len(e.config.SeedPayloads) == 0 {
		// A single empty payload still exercises the tag dispatch path.
		e.config.SeedPayloads = [][]byte{{0}}
	}

	campaignID := uuid.NewString()
	e.stats.StartTime = time.Now()

	e.log.WithFields(logrus.Fields{
		"campaign":   campaignID,
		"target":     e.config.TargetProgram.String(),
		"iterations": e.config.Iterations,
		"workers":    e.config.Workers,
	}).Info("Chaos campaign started")

	work := make(chan *interfaces.ChaosTestCase, e.config.Workers)
	var wg sync.WaitGroup

	for w := 0; w < e.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for testCase := range work {
				e.runTestCase(ctx, testCase)
			}
		}()
	}

	composite := strategies.NewCompositeMutator(e.mutators, e.config.ChainLength, true)

feed:
	for i := 0; i < e.config.Iterations; i++ {
		seed := e.seedCase(i)
		mutated, err := composite.Mutate(seed)
		if err != nil {
			e.log.WithField("error", err).Warn("Mutation failed, skipping iteration")
			continue
		}

		select {
		case <-ctx.Done():
			break feed
		case work <- mutated:
		}
	}
	close(work)
	wg.Wait()

	report := &CampaignReport{
		CampaignID: campaignID,
		Target:     e.config.TargetProgram.String(),
		Stats:      e.stats.Snapshot(),
		Findings:   e.snapshotFindings(),
		Duration:   time.Since(e.stats.StartTime),
	}

	e.log.WithFields(logrus.Fields{
		"campaign":   campaignID,
		"executions": report.Stats.Executions,
		"failures":   report.Stats.Failures,
		"findings":   report.Stats.Findings,
		"duration":   report.Duration,
	}).Info("Chaos campaign completed")

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

// seedCase wraps one of the seed payloads as a generation-zero test case
func (e *Engine) seedCase(iteration int) *interfaces.ChaosTestCase {
	payload := e.config.SeedPayloads[iteration%len(e.config.SeedPayloads)]
	data := make([]byte, len(payload))
	copy(data, payload)

	return &interfaces.ChaosTestCase{
		ID:        uuid.NewString(),
		Data:      data,
		CreatedAt: time.Now(),
		Priority:  100,
		Metadata:  map[string]interface{}{"seed_index": iteration % len(e.config.SeedPayloads)},
	}
}

// runTestCase simulates one adversarial transaction and records the outcome
func (e *Engine) runTestCase(ctx context.Context, testCase *interfaces.ChaosTestCase) {
	tx := &interfaces.Transaction{
		Payer: e.config.Payer,
		Instructions: []interfaces.Instruction{{
			ProgramID: e.config.TargetProgram,
			Accounts: []interfaces.AccountMeta{
				{Pubkey: e.config.Payer, IsSigner: true, IsWritable: true},
			},
			Data: testCase.Data,
		}},
	}

	start := time.Now()
	sim, err := e.sender.SimulateTransaction(ctx, tx)
	duration := time.Since(start)

	e.stats.IncrementExecutions()

	result := interfaces.ChaosResult{
		TestCaseID: testCase.ID,
		Duration:   duration,
	}

	switch {
	case err != nil:
		// Transport failure, not a program failure. Logged and skipped so
		// endpoint flakiness never shows up as a finding.
		e.log.WithFields(logrus.Fields{
			"test_case": testCase.ID,
			"error":     err,
		}).Warn("Simulation request failed")
		return
	case sim.Err != "":
		result.Err = sim.Err
		result.Logs = sim.Logs
		result.UnitsConsumed = sim.UnitsConsumed
		result.Category, result.Severity = e.classifier.Classify(sim.Err, sim.Logs)

		e.stats.IncrementFailures()
		e.stats.AddUnitsConsumed(sim.UnitsConsumed)

		if result.Severity != SeverityInfo {
			e.stats.IncrementFindings()
			e.recordFinding(result)
			e.log.WithFields(logrus.Fields{
				"test_case": testCase.ID,
				"category":  result.Category,
				"severity":  result.Severity,
			}).Error("Chaos finding")
		}
	default:
		result.Logs = sim.Logs
		result.UnitsConsumed = sim.UnitsConsumed
		e.stats.AddUnitsConsumed(sim.UnitsConsumed)
	}

	for _, obs := range e.observers {
		obs.Observe(result)
	}
}

func (e *Engine) recordFinding(result interfaces.ChaosResult) {
	e.findingsMu.Lock()
	defer e.findingsMu.Unlock()
	e.findings = append(e.findings, result)
}

func (e *Engine) snapshotFindings() []interfaces.ChaosResult {
	e.findingsMu.Lock()
	defer e.findingsMu.Unlock()
	out := make([]interfaces.ChaosResult, len(e.findings))
	copy(out, e.findings)
	return out
}
