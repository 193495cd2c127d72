/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: governance.go
Description: Governance command implementations for the Glitch CLI. Covers the
full proposal lifecycle: creation, voting, execution, cancellation, and status
inspection against the deployed governance program.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunPropose creates and submits a governance proposal
func RunPropose(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	target, err := parseAddress(viper.GetString("proposal.target"), "target program")
	if err != nil {
		return err
	}

	req := governance.CreateProposalRequest{
		Title:         viper.GetString("proposal.title"),
		Description:   viper.GetString("proposal.description"),
		StakingAmount: viper.GetUint64("proposal.stake"),
		VotingPeriod:  viper.GetDuration("proposal.voting_period"),
		TestParams: governance.TestParams{
			TargetProgram: target,
			TestDuration:  uint32(viper.GetUint64("proposal.test_duration")),
			Intensity:     uint8(viper.GetUint64("proposal.intensity")),
			SecurityLevel: uint8(viper.GetUint64("proposal.security_level")),
		},
	}

	receipt, err := client.CreateProposal(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Printf("Proposal created\n")
	fmt.Printf("  Address:   %s\n", receipt.ProposalAddress)
	fmt.Printf("  Signature: %s\n", receipt.Signature)
	return nil
}

// RunVote casts a vote on an existing proposal
func RunVote(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	proposal, err := parseAddress(viper.GetString("vote.proposal"), "proposal address")
	if err != nil {
		return err
	}

	var support governance.VoteSupport
	switch viper.GetString("vote.support") {
	case "yes":
		support = governance.VoteYes
	case "no":
		support = governance.VoteNo
	case "abstain":
		support = governance.VoteAbstain
	default:
		return fmt.Errorf("support must be yes, no, or abstain")
	}

	signature, err := client.Vote(cmd.Context(), proposal, support, viper.GetUint64("vote.weight"))
	if err != nil {
		return err
	}

	fmt.Printf("Vote submitted\n")
	fmt.Printf("  Signature: %s\n", signature)
	return nil
}

// RunExecute executes a succeeded proposal after its timelock
func RunExecute(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	proposal, err := parseAddress(viper.GetString("execute.proposal"), "proposal address")
	if err != nil {
		return err
	}

	receipt, err := client.ExecuteProposal(cmd.Context(), proposal)
	if err != nil {
		return err
	}

	fmt.Printf("Proposal executed\n")
	fmt.Printf("  Signature:   %s\n", receipt.Signature)
	fmt.Printf("  Executed at: %s\n", receipt.ExecutedAt)
	return nil
}

// RunCancel cancels a draft or active proposal
func RunCancel(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	proposal, err := parseAddress(viper.GetString("cancel.proposal"), "proposal address")
	if err != nil {
		return err
	}

	signature, err := client.CancelProposal(cmd.Context(), proposal)
	if err != nil {
		return err
	}

	fmt.Printf("Proposal cancelled\n")
	fmt.Printf("  Signature: %s\n", signature)
	return nil
}

// RunStatus prints the derived status view of a proposal
func RunStatus(cmd *cobra.Command, args []string) error {
	client, err := newSDKClient()
	if err != nil {
		return err
	}

	proposal, err := parseAddress(viper.GetString("status.proposal"), "proposal address")
	if err != nil {
		return err
	}

	status, err := client.GetProposalStatus(cmd.Context(), proposal)
	if err != nil {
		return err
	}

	if viper.GetBool("json_output") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("Proposal %s\n", status.Address)
	fmt.Printf("  State:       %s\n", status.State)
	fmt.Printf("  Votes:       yes=%d no=%d abstain=%d (quorum %d)\n",
		status.Votes.Yes, status.Votes.No, status.Votes.Abstain, status.Quorum)
	fmt.Printf("  Active:      %v\n", status.IsActive)
	fmt.Printf("  Passed:      %v\n", status.IsPassed)
	fmt.Printf("  Executed:    %v\n", status.IsExecuted)
	fmt.Printf("  Can vote:    %v\n", status.CanVote)
	fmt.Printf("  Can execute: %v\n", status.CanExecute)
	if status.TimeRemaining > 0 {
		fmt.Printf("  Time left:   %s\n", status.TimeRemaining)
	}
	return nil
}
