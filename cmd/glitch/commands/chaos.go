/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: chaos.go
Description: Chaos command implementations for the Glitch CLI. Runs chaos
campaigns against target programs, manages chaos requests on-chain, and lists
the available mutation strategies.
*/

package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/chaos"
	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/logging"
	"github.com/glitchgremlin/glitch-sdk/pkg/sdk"
	"github.com/glitchgremlin/glitch-sdk/pkg/strategies"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultMutators returns the full mutation strategy set at the given rate
func defaultMutators(rate float64) []interfaces.Mutator {
	return []interfaces.Mutator{
		strategies.NewBitFlipMutator(rate),
		strategies.NewByteSubstitutionMutator(rate),
		strategies.NewAmountMutator(rate),
		strategies.NewAccountKeyMutator(rate),
		strategies.NewLengthMutator(rate),
	}
}

// RunChaosCampaign drives a chaos campaign against a target program
func RunChaosCampaign(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	if err := SetupLogging(); err != nil {
		return err
	}
	log := logrus.StandardLogger()

	target, err := parseAddress(viper.GetString("chaos.target"), "target program")
	if err != nil {
		return err
	}

	signer, err := loadSigner()
	if err != nil {
		return err
	}

	var sender interfaces.TransactionSender
	if viper.GetBool("chaos.dry_run") {
		sender = chain.NewMemoryChain()
	} else {
		sender = chain.NewClient(viper.GetString("endpoint"), interfaces.Address{}, log)
	}

	var seeds [][]byte
	for _, s := range viper.GetStringSlice("chaos.seeds") {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid seed payload %q: %w", s, err)
		}
		seeds = append(seeds, raw)
	}

	config := chaos.CampaignConfig{
		TargetProgram: target,
		Payer:         signer.Pubkey(),
		Iterations:    viper.GetInt("chaos.iterations"),
		Workers:       viper.GetInt("chaos.workers"),
		MutationRate:  viper.GetFloat64("chaos.mutation_rate"),
		ChainLength:   viper.GetInt("chaos.chain_length"),
		SeedPayloads:  seeds,
	}

	engine := chaos.NewEngine(config, sender, chaos.NewClassifier(), defaultMutators(config.MutationRate), log)

	report, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	if dir := viper.GetString("chaos.log_dir"); dir != "" {
		fileLog, err := logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.LogLevel(viper.GetString("log_level")),
			Format:    logging.LogFormatCustom,
			OutputDir: dir,
			MaxFiles:  10,
			MaxSize:   100 * 1024 * 1024,
			Timestamp: true,
		})
		if err != nil {
			return fmt.Errorf("failed to open campaign log: %w", err)
		}
		for _, finding := range report.Findings {
			fileLog.LogFinding(report.CampaignID, finding.Category, finding.Severity, map[string]interface{}{
				"test_case": finding.TestCaseID,
				"error":     finding.Err,
			})
		}
		fileLog.GetLogger().WithFields(logrus.Fields{
			"campaign":   report.CampaignID,
			"target":     report.Target,
			"executions": report.Stats.Executions,
			"failures":   report.Stats.Failures,
			"findings":   report.Stats.Findings,
			"duration":   report.Duration.String(),
		}).Info("Campaign complete")
		if err := fileLog.Close(); err != nil {
			return err
		}
	}

	if viper.GetBool("json_output") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Campaign %s against %s\n", report.CampaignID, report.Target)
	fmt.Printf("  Executions: %d\n", report.Stats.Executions)
	fmt.Printf("  Failures:   %d\n", report.Stats.Failures)
	fmt.Printf("  Findings:   %d\n", report.Stats.Findings)
	fmt.Printf("  Duration:   %s\n", report.Duration)
	for _, finding := range report.Findings {
		fmt.Printf("  [%s] %s: %s\n", finding.Severity, finding.Category, finding.Err)
	}
	return nil
}

// RunChaosRequest commissions an on-chain chaos request with escrowed tokens
func RunChaosRequest(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	target, err := parseAddress(viper.GetString("request.target"), "target program")
	if err != nil {
		return err
	}

	params := governance.TestParams{
		TargetProgram: target,
		TestDuration:  uint32(viper.GetUint64("request.duration")),
		Intensity:     uint8(viper.GetUint64("request.intensity")),
		SecurityLevel: uint8(viper.GetUint64("request.security_level")),
	}

	receipt, err := client.CreateChaosRequest(cmd.Context(), params, viper.GetUint64("request.amount"))
	if err != nil {
		return err
	}

	fmt.Printf("Chaos request created\n")
	fmt.Printf("  Address:   %s\n", receipt.RequestAddress)
	fmt.Printf("  Signature: %s\n", receipt.Signature)
	return nil
}

// RunChaosFinalize closes a chaos request with its terminal status
func RunChaosFinalize(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	request, err := parseAddress(viper.GetString("finalize.request"), "request address")
	if err != nil {
		return err
	}

	var status sdk.ChaosRequestStatus
	switch viper.GetString("finalize.status") {
	case "completed":
		status = sdk.ChaosStatusCompleted
	case "failed":
		status = sdk.ChaosStatusFailed
	default:
		return fmt.Errorf("status must be completed or failed")
	}

	signature, err := client.FinalizeChaosRequest(cmd.Context(), request, status, viper.GetString("finalize.result_ref"))
	if err != nil {
		return err
	}

	fmt.Printf("Chaos request finalized\n")
	fmt.Printf("  Signature: %s\n", signature)
	return nil
}

// ListMutators prints the available mutation strategies
func ListMutators(cmd *cobra.Command, args []string) {
	fmt.Println("Available mutators:")
	fmt.Println()
	for _, m := range defaultMutators(0.05) {
		fmt.Printf("  %s\n    %s\n\n", m.Name(), m.Description())
	}
}
