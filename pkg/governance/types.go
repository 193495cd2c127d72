/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core governance entities for the Glitch Gremlin SDK. Defines the
proposal account model, vote records, stake accounts, chaos test parameters,
and the configuration knobs that bound proposal creation and voting.
*/

package governance

import (
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
)

// ProposalState enumerates the proposal lifecycle.
// Draft -> Active -> {Succeeded | Defeated} -> Executed, with Cancelled as a
// terminal side branch from Draft or Active. StateUnknown marks account data
// whose state tag is outside the known range; it is never silently treated
// as Draft.
type ProposalState uint8

const (
	StateDraft ProposalState = iota
	StateActive
	StateSucceeded
	StateDefeated
	StateExecuted
	StateCancelled
	StateUnknown
)

// String returns the canonical name of the state
func (s ProposalState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateActive:
		return "active"
	case StateSucceeded:
		return "succeeded"
	case StateDefeated:
		return "defeated"
	case StateExecuted:
		return "executed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state admits no further transitions
func (s ProposalState) IsTerminal() bool {
	return s == StateExecuted || s == StateCancelled || s == StateDefeated
}

// VoteSupport is a voter's choice on a proposal
type VoteSupport uint8

const (
	VoteYes VoteSupport = iota
	VoteNo
	VoteAbstain
)

// String returns the canonical name of the vote choice
func (v VoteSupport) String() string {
	switch v {
	case VoteYes:
		return "yes"
	case VoteNo:
		return "no"
	case VoteAbstain:
		return "abstain"
	default:
		return "invalid"
	}
}

// VoteCounts aggregates vote weight per choice
type VoteCounts struct {
	Yes     uint32 `json:"yes"`
	No      uint32 `json:"no"`
	Abstain uint32 `json:"abstain"`
}

// Total returns the total vote weight cast
func (v VoteCounts) Total() uint64 {
	return uint64(v.Yes) + uint64(v.No) + uint64(v.Abstain)
}

// VoteRecord is one immutable vote, at most one per (proposal, voter) pair
type VoteRecord struct {
	Voter     interfaces.Address `json:"voter"`
	Support   VoteSupport        `json:"support"`
	Weight    uint32             `json:"weight"`
	Timestamp int64              `json:"timestamp"`
}

// TestParams describes the chaos campaign a proposal requests against a
// target program
type TestParams struct {
	TargetProgram interfaces.Address `json:"target_program"`
	TestDuration  uint32             `json:"test_duration"`  // Seconds
	Intensity     uint8              `json:"intensity"`      // 1-10
	SecurityLevel uint8              `json:"security_level"` // 1-4
}

// Proposal is the central governance entity, mirroring the on-chain account
type Proposal struct {
	Address     interfaces.Address `json:"address"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Proposer    interfaces.Address `json:"proposer"`
	StartTime   int64              `json:"start_time"`    // Voting window open (epoch seconds)
	EndTime     int64              `json:"end_time"`      // Voting window close
	TimeLockEnd int64              `json:"time_lock_end"` // Earliest execution time
	Votes       VoteCounts         `json:"votes"`
	Quorum      uint32             `json:"quorum"`
	Executed    bool               `json:"executed"`
	State       ProposalState      `json:"state"`
	VoteRecords []VoteRecord       `json:"vote_records"`
}

// HasReachedQuorum reports whether total cast weight meets the quorum
// threshold. The boundary is inclusive: total == quorum satisfies it.
func (p *Proposal) HasReachedQuorum() bool {
	return p.Votes.Total() >= uint64(p.Quorum)
}

// IsPassed reports whether the proposal passes: quorum reached and yes
// strictly exceeding no. A tie never passes.
func (p *Proposal) IsPassed() bool {
	return p.HasReachedQuorum() && p.Votes.Yes > p.Votes.No
}

// FindVote returns the vote record for the given voter, or nil
func (p *Proposal) FindVote(voter interfaces.Address) *VoteRecord {
	for i := range p.VoteRecords {
		if p.VoteRecords[i].Voter == voter {
			return &p.VoteRecords[i]
		}
	}
	return nil
}

// StakeInfo is a stake account backing proposal creation and voting weight
type StakeInfo struct {
	Owner        interfaces.Address `json:"owner"`
	Amount       uint64             `json:"amount"`
	LockupPeriod int64              `json:"lockup_period"` // Seconds
	StartTime    int64              `json:"start_time"`    // Epoch seconds
	Rewards      uint64             `json:"rewards"`
}

// ProposalStatus is the derived status object returned to SDK/CLI callers
type ProposalStatus struct {
	Address       interfaces.Address `json:"address"`
	State         ProposalState      `json:"state"`
	Votes         VoteCounts         `json:"votes"`
	Quorum        uint32             `json:"quorum"`
	IsActive      bool               `json:"is_active"`
	IsPassed      bool               `json:"is_passed"`
	IsExecuted    bool               `json:"is_executed"`
	IsExpired     bool               `json:"is_expired"`
	CanExecute    bool               `json:"can_execute"`
	CanVote       bool               `json:"can_vote"`
	TimeRemaining time.Duration      `json:"time_remaining"`
}

// Config bounds proposal creation, voting, and staking. All components take
// it by explicit reference; there is no package-level default instance.
type Config struct {
	ProgramID        interfaces.Address // Governance program address
	MinVotingPeriod  time.Duration      // Lower bound for votingPeriod
	MaxVotingPeriod  time.Duration      // Upper bound for votingPeriod
	MinStakeAmount   uint64             // Minimum stake to create a proposal
	MinVotingPower   uint64             // Weight at or below this cannot vote
	DefaultQuorum    uint32             // Quorum for new proposals
	ExecutionDelay   time.Duration      // Timelock between endTime and execution
	MinLockupPeriod  time.Duration      // Stake lockup lower bound
	MaxLockupPeriod  time.Duration      // Stake lockup upper bound
	BaseRewardRate   float64            // Base staking APY (fraction, e.g. 0.05)
	MaxDurationBonus float64            // Max extra APY for long stakes
}

// DefaultConfig returns the configuration the original deployment shipped with
func DefaultConfig() Config {
	return Config{
		MinVotingPeriod:  24 * time.Hour,
		MaxVotingPeriod:  14 * 24 * time.Hour,
		MinStakeAmount:   1000,
		MinVotingPower:   0,
		DefaultQuorum:    100,
		ExecutionDelay:   24 * time.Hour,
		MinLockupPeriod:  24 * time.Hour,
		MaxLockupPeriod:  365 * 24 * time.Hour,
		BaseRewardRate:   0.05,
		MaxDurationBonus: 0.05,
	}
}
