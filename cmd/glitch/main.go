/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for the Glitch Gremlin SDK. Provides
governance proposal management, chaos campaign execution, chaos request
lifecycle commands, and anomaly detection over campaign metrics.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/glitchgremlin/glitch-sdk/cmd/glitch/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "glitch",
		Short: "Glitch Gremlin - Chaos testing and governance for on-chain programs",
		Long: `Glitch Gremlin is a chaos-as-a-service toolkit for on-chain programs. It
combines community governance (proposals, voting, timelocked execution) with a
mutation-based chaos engine that probes target programs for arithmetic,
access-control, and validation failures, and an anomaly detector that flags
abnormal campaign behavior.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Use JSON log format")
	rootCmd.PersistentFlags().Bool("json", false, "Emit command output as JSON")
	rootCmd.PersistentFlags().String("endpoint", "http://127.0.0.1:8899", "Chain RPC endpoint")
	rootCmd.PersistentFlags().String("keypair", "", "Hex-encoded ed25519 keypair")
	rootCmd.PersistentFlags().String("governance-program", "", "Governance program address")
	rootCmd.PersistentFlags().String("chaos-program", "", "Chaos request program address")
	rootCmd.PersistentFlags().String("delegation-program", "", "Delegation program address")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for rate limit counters (empty = in-memory)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database index")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("json_output", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("keypair", rootCmd.PersistentFlags().Lookup("keypair"))
	viper.BindPFlag("governance_program", rootCmd.PersistentFlags().Lookup("governance-program"))
	viper.BindPFlag("chaos_program", rootCmd.PersistentFlags().Lookup("chaos-program"))
	viper.BindPFlag("delegation_program", rootCmd.PersistentFlags().Lookup("delegation-program"))
	viper.BindPFlag("redis_addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("redis_password", rootCmd.PersistentFlags().Lookup("redis-password"))
	viper.BindPFlag("redis_db", rootCmd.PersistentFlags().Lookup("redis-db"))

	// Governance command group
	governanceCmd := &cobra.Command{
		Use:   "governance",
		Short: "Manage governance proposals",
		Long: `Create, vote on, execute, and cancel governance proposals that commission
chaos campaigns against target programs.`,
	}

	proposeCmd := &cobra.Command{
		Use:   "propose",
		Short: "Create a new governance proposal",
		Long: `Create a governance proposal describing a chaos campaign against a target
program. Requires the minimum token stake; the voting window and timelock are
bounded by the governance configuration.`,
		RunE: commands.RunPropose,
	}
	proposeCmd.Flags().String("title", "", "Proposal title (required)")
	proposeCmd.Flags().String("description", "", "Proposal description (required)")
	proposeCmd.Flags().Uint64("stake", 0, "Tokens staked behind the proposal")
	proposeCmd.Flags().Duration("voting-period", 7*24*time.Hour, "Voting window length")
	proposeCmd.Flags().String("target", "", "Target program for the chaos campaign (required)")
	proposeCmd.Flags().Uint32("test-duration", 300, "Campaign duration in seconds")
	proposeCmd.Flags().Uint8("intensity", 5, "Campaign intensity (1-10)")
	proposeCmd.Flags().Uint8("security-level", 2, "Campaign security level (1-4)")
	proposeCmd.MarkFlagRequired("title")
	proposeCmd.MarkFlagRequired("description")
	proposeCmd.MarkFlagRequired("target")

	viper.BindPFlag("proposal.title", proposeCmd.Flags().Lookup("title"))
	viper.BindPFlag("proposal.description", proposeCmd.Flags().Lookup("description"))
	viper.BindPFlag("proposal.stake", proposeCmd.Flags().Lookup("stake"))
	viper.BindPFlag("proposal.voting_period", proposeCmd.Flags().Lookup("voting-period"))
	viper.BindPFlag("proposal.target", proposeCmd.Flags().Lookup("target"))
	viper.BindPFlag("proposal.test_duration", proposeCmd.Flags().Lookup("test-duration"))
	viper.BindPFlag("proposal.intensity", proposeCmd.Flags().Lookup("intensity"))
	viper.BindPFlag("proposal.security_level", proposeCmd.Flags().Lookup("security-level"))

	voteCmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast a vote on a proposal",
		Long: `Cast a yes/no/abstain vote on an active proposal. The vote weight derives
from token balance plus delegations unless overridden.`,
		RunE: commands.RunVote,
	}
	voteCmd.Flags().String("proposal", "", "Proposal address (required)")
	voteCmd.Flags().String("support", "yes", "Vote choice (yes, no, abstain)")
	voteCmd.Flags().Uint64("weight", 0, "Vote weight override (0 = derive from balances)")
	voteCmd.MarkFlagRequired("proposal")

	viper.BindPFlag("vote.proposal", voteCmd.Flags().Lookup("proposal"))
	viper.BindPFlag("vote.support", voteCmd.Flags().Lookup("support"))
	viper.BindPFlag("vote.weight", voteCmd.Flags().Lookup("weight"))

	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute a succeeded proposal",
		Long: `Execute a proposal that reached quorum, passed its vote, and cleared its
timelock.`,
		RunE: commands.RunExecute,
	}
	executeCmd.Flags().String("proposal", "", "Proposal address (required)")
	executeCmd.MarkFlagRequired("proposal")
	viper.BindPFlag("execute.proposal", executeCmd.Flags().Lookup("proposal"))

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a draft or active proposal",
		RunE:  commands.RunCancel,
	}
	cancelCmd.Flags().String("proposal", "", "Proposal address (required)")
	cancelCmd.MarkFlagRequired("proposal")
	viper.BindPFlag("cancel.proposal", cancelCmd.Flags().Lookup("proposal"))

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a proposal",
		RunE:  commands.RunStatus,
	}
	statusCmd.Flags().String("proposal", "", "Proposal address (required)")
	statusCmd.MarkFlagRequired("proposal")
	viper.BindPFlag("status.proposal", statusCmd.Flags().Lookup("proposal"))

	governanceCmd.AddCommand(proposeCmd, voteCmd, executeCmd, cancelCmd, statusCmd)
	rootCmd.AddCommand(governanceCmd)

	// Chaos command group
	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "Run chaos campaigns and manage chaos requests",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a chaos campaign against a target program",
		Long: `Run a mutation-based chaos campaign against a target program through
transaction simulation. Program failures are classified by vulnerability
category and severity; transport failures are never counted as findings.`,
		RunE: commands.RunChaosCampaign,
	}
	runCmd.Flags().String("target", "", "Target program address (required)")
	runCmd.Flags().Int("iterations", 1000, "Total test cases to run")
	runCmd.Flags().Int("workers", 0, "Parallel workers (0 = auto)")
	runCmd.Flags().Float64("mutation-rate", 0.05, "Per-element mutation probability")
	runCmd.Flags().Int("chain-length", 3, "Mutators applied per test case")
	runCmd.Flags().StringSlice("seeds", []string{}, "Hex-encoded seed instruction payloads")
	runCmd.Flags().Bool("dry-run", false, "Simulate against an in-memory chain")
	runCmd.Flags().String("log-dir", "", "Directory for campaign log files (empty = console only)")
	runCmd.MarkFlagRequired("target")

	viper.BindPFlag("chaos.target", runCmd.Flags().Lookup("target"))
	viper.BindPFlag("chaos.iterations", runCmd.Flags().Lookup("iterations"))
	viper.BindPFlag("chaos.workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("chaos.mutation_rate", runCmd.Flags().Lookup("mutation-rate"))
	viper.BindPFlag("chaos.chain_length", runCmd.Flags().Lookup("chain-length"))
	viper.BindPFlag("chaos.seeds", runCmd.Flags().Lookup("seeds"))
	viper.BindPFlag("chaos.dry_run", runCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("chaos.log_dir", runCmd.Flags().Lookup("log-dir"))

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Create an on-chain chaos request",
		Long: `Commission a chaos campaign on-chain by escrowing tokens against a chaos
request account. The request is picked up by the off-chain campaign workers.`,
		RunE: commands.RunChaosRequest,
	}
	requestCmd.Flags().String("target", "", "Target program address (required)")
	requestCmd.Flags().Uint64("amount", 0, "Tokens escrowed for the campaign")
	requestCmd.Flags().Uint32("duration", 300, "Campaign duration in seconds")
	requestCmd.Flags().Uint8("intensity", 5, "Campaign intensity (1-10)")
	requestCmd.Flags().Uint8("security-level", 2, "Campaign security level (1-4)")
	requestCmd.MarkFlagRequired("target")

	viper.BindPFlag("request.target", requestCmd.Flags().Lookup("target"))
	viper.BindPFlag("request.amount", requestCmd.Flags().Lookup("amount"))
	viper.BindPFlag("request.duration", requestCmd.Flags().Lookup("duration"))
	viper.BindPFlag("request.intensity", requestCmd.Flags().Lookup("intensity"))
	viper.BindPFlag("request.security_level", requestCmd.Flags().Lookup("security-level"))

	finalizeCmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize a chaos request with its results",
		RunE:  commands.RunChaosFinalize,
	}
	finalizeCmd.Flags().String("request", "", "Chaos request address (required)")
	finalizeCmd.Flags().String("status", "completed", "Terminal status (completed, failed)")
	finalizeCmd.Flags().String("result-ref", "", "Reference to the published campaign results")
	finalizeCmd.MarkFlagRequired("request")

	viper.BindPFlag("finalize.request", finalizeCmd.Flags().Lookup("request"))
	viper.BindPFlag("finalize.status", finalizeCmd.Flags().Lookup("status"))
	viper.BindPFlag("finalize.result_ref", finalizeCmd.Flags().Lookup("result-ref"))

	chaosCmd.AddCommand(runCmd, requestCmd, finalizeCmd)
	rootCmd.AddCommand(chaosCmd)

	// Anomaly command group
	anomalyCmd := &cobra.Command{
		Use:   "anomaly",
		Short: "Train and run the campaign anomaly detector",
	}

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train the detector on baseline campaign metrics",
		Long: `Train the autoencoder anomaly detector on a baseline of normal campaign
metric windows and report the derived decision threshold.`,
		RunE: commands.RunAnomalyTrain,
	}
	trainCmd.Flags().String("baseline", "", "JSON file of baseline metric windows (required)")
	trainCmd.Flags().Int("epochs", 0, "Training epochs (0 = default)")
	trainCmd.Flags().Float64("threshold-sigma", 0, "Threshold sigma (0 = default)")
	trainCmd.MarkFlagRequired("baseline")

	viper.BindPFlag("anomaly.baseline", trainCmd.Flags().Lookup("baseline"))
	viper.BindPFlag("anomaly.epochs", trainCmd.Flags().Lookup("epochs"))
	viper.BindPFlag("anomaly.threshold_sigma", trainCmd.Flags().Lookup("threshold-sigma"))

	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Score candidate metric windows against a baseline",
		RunE:  commands.RunAnomalyDetect,
	}
	detectCmd.Flags().String("baseline", "", "JSON file of baseline metric windows (required)")
	detectCmd.Flags().String("input", "", "JSON file of candidate metric windows (required)")
	detectCmd.MarkFlagRequired("baseline")
	detectCmd.MarkFlagRequired("input")

	viper.BindPFlag("anomaly.baseline", detectCmd.Flags().Lookup("baseline"))
	viper.BindPFlag("anomaly.input", detectCmd.Flags().Lookup("input"))

	anomalyCmd.AddCommand(trainCmd, detectCmd)
	rootCmd.AddCommand(anomalyCmd)

	// Add list-mutators command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-mutators",
		Short: "List available mutators and their capabilities",
		Long: `List all mutation strategies available to chaos campaigns with detailed
descriptions of their capabilities and use cases.`,
		Run: func(cmd *cobra.Command, args []string) {
			commands.ListMutators(cmd, args)
		},
	})

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
