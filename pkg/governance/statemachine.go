/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: statemachine.go
Description: Governance state machine for the Glitch Gremlin SDK. Drives the
proposal lifecycle (creation, validation, voting, quorum/timelock checks,
execution, cancellation) against on-chain account state read through the
capability interfaces. All checks here are advisory pre-checks performed on a
possibly-stale account read; the on-chain governance program remains the
single source of truth and re-validates every transition, so callers get
eventual consistency, not serializability.
*/

package governance

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// Instruction tags understood by the governance program
const (
	instrCreateProposal uint8 = iota
	instrCastVote
	instrExecuteProposal
	instrCancelProposal
)

// CreateProposalRequest carries the parameters for a new proposal
type CreateProposalRequest struct {
	Proposer      interfaces.Address
	Title         string
	Description   string
	TestParams    TestParams
	StakingAmount uint64
	VotingPeriod  time.Duration
}

// CreateProposalResult is the outcome of a successful proposal creation.
// The instruction is unsigned; submission and confirmation belong to the
// transaction sender collaborator.
type CreateProposalResult struct {
	ProposalAddress interfaces.Address
	Proposal        *Proposal
	Instruction     interfaces.Instruction
}

// VoteRequest carries the parameters for casting a vote. A zero Weight asks
// the state machine to derive the weight from the vote weight calculator.
type VoteRequest struct {
	Proposal interfaces.Address
	Voter    interfaces.Address
	Support  VoteSupport
	Weight   uint64
}

// VoteResult is the outcome of a successful vote pre-check
type VoteResult struct {
	Record      VoteRecord
	Instruction interfaces.Instruction
}

// ExecuteResult is the outcome of a successful execution pre-check
type ExecuteResult struct {
	Instruction interfaces.Instruction
	ExecutedAt  time.Time
}

// StateMachine drives the proposal lifecycle:
// Draft -> Active -> {Succeeded | Defeated} -> Executed, with Cancelled
// reachable from Draft or Active.
type StateMachine struct {
	config  Config
	reader  interfaces.AccountReader
	store   *ProposalStore
	weights *VoteWeightCalculator
	clock   interfaces.Clock
	log     *logrus.Logger
}

// NewStateMachine creates a governance state machine. All collaborators are
// injected; there is no global instance.
func NewStateMachine(config Config, reader interfaces.AccountReader, store *ProposalStore, weights *VoteWeightCalculator, clock interfaces.Clock, log *logrus.Logger) *StateMachine {
	if clock == nil {
		clock = interfaces.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StateMachine{
		config:  config,
		reader:  reader,
		store:   store,
		weights: weights,
		clock:   clock,
		log:     log,
	}
}

// CreateProposal validates the request and builds the creation instruction.
// The proposal address is derived deterministically from the proposer key,
// the title, and the voting window, so retries of the same request land on
// the same account.
func (m *StateMachine) CreateProposal(ctx context.Context, req CreateProposalRequest) (*CreateProposalResult, error) {
	if req.Title == "" || req.Description == "" {
		return nil, ErrInvalidProposalParameters.WithMessagef("title and description must be non-empty")
	}
	if len(req.Title) > MaxTitleLen || len(req.Description) > MaxDescriptionLen {
		return nil, ErrInvalidProposalParameters.WithMessagef("title or description exceeds bounds")
	}
	if req.VotingPeriod < m.config.MinVotingPeriod || req.VotingPeriod > m.config.MaxVotingPeriod {
		return nil, ErrInvalidVotingPeriod.WithMessagef("%s outside [%s, %s]", req.VotingPeriod, m.config.MinVotingPeriod, m.config.MaxVotingPeriod)
	}
	if req.StakingAmount < m.config.MinStakeAmount {
		return nil, ErrInsufficientStake.WithMessagef("%d staked, minimum is %d", req.StakingAmount, m.config.MinStakeAmount)
	}

	now := m.clock.Now()
	start := now.Unix()
	end := now.Add(req.VotingPeriod).Unix()

	proposal := &Proposal{
		Address:     deriveProposalAddress(req.Proposer, req.Title, start, end),
		Title:       req.Title,
		Description: req.Description,
		Proposer:    req.Proposer,
		StartTime:   start,
		EndTime:     end,
		TimeLockEnd: now.Add(req.VotingPeriod).Add(m.config.ExecutionDelay).Unix(),
		Quorum:      m.config.DefaultQuorum,
		State:       StateDraft,
	}

	encoded, err := m.store.Encode(proposal)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 1+8+len(encoded))
	data = append(data, instrCreateProposal)
	data = binary.LittleEndian.AppendUint64(data, req.StakingAmount)
	data = append(data, encoded...)

	m.log.WithFields(logrus.Fields{
		"proposal": proposal.Address.String(),
		"proposer": req.Proposer.String(),
		"end_time": end,
		"stake":    req.StakingAmount,
	}).Info("Proposal created")

	return &CreateProposalResult{
		ProposalAddress: proposal.Address,
		Proposal:        proposal,
		Instruction: interfaces.Instruction{
			ProgramID: m.config.ProgramID,
			Accounts: []interfaces.AccountMeta{
				{Pubkey: req.Proposer, IsSigner: true, IsWritable: true},
				{Pubkey: proposal.Address, IsSigner: false, IsWritable: true},
			},
			Data: data,
		},
	}, nil
}

// ValidateProposal loads a proposal and checks that voting on it is
// currently legal. Quorum is deliberately not checked here: it gates
// execution only.
func (m *StateMachine) ValidateProposal(ctx context.Context, address interfaces.Address) (*Proposal, error) {
	proposal, err := m.loadProposal(ctx, address)
	if err != nil {
		return nil, err
	}

	if proposal.State != StateDraft && proposal.State != StateActive {
		return nil, ErrProposalNotActive.WithMessagef("state is %s", proposal.State)
	}

	now := m.clock.Now().Unix()
	if now < proposal.StartTime {
		return nil, ErrVotingNotStarted.WithMessagef("starts at %d", proposal.StartTime)
	}
	if now > proposal.EndTime {
		return nil, ErrVotingEnded.WithMessagef("ended at %d", proposal.EndTime)
	}
	return proposal, nil
}

// CastVote pre-checks a vote and builds the vote instruction. The vote
// record it returns is conceptual; persistence belongs to the chain program,
// which also rejects concurrent double votes this pre-check cannot see.
func (m *StateMachine) CastVote(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	proposal, err := m.ValidateProposal(ctx, req.Proposal)
	if err != nil {
		return nil, err
	}

	if proposal.FindVote(req.Voter) != nil {
		return nil, ErrAlreadyVoted.WithMessagef("voter %s", req.Voter.String())
	}

	weight := req.Weight
	if weight == 0 {
		weight, err = m.weights.Calculate(ctx, req.Voter)
		if err != nil {
			return nil, err
		}
	}
	if weight <= m.config.MinVotingPower {
		return nil, ErrInsufficientVotingPower.WithMessagef("weight %d, minimum is above %d", weight, m.config.MinVotingPower)
	}
	if weight > math.MaxUint32 {
		// The vote record carries a u32 weight on the wire.
		m.log.WithFields(logrus.Fields{
			"voter":   req.Voter.String(),
			"derived": weight,
		}).Warn("Vote weight clamped to the wire maximum")
		weight = math.MaxUint32
	}

	record := VoteRecord{
		Voter:     req.Voter,
		Support:   req.Support,
		Weight:    uint32(weight),
		Timestamp: m.clock.Now().Unix(),
	}

	data := make([]byte, 0, 1+1+4)
	data = append(data, instrCastVote, byte(req.Support))
	data = binary.LittleEndian.AppendUint32(data, record.Weight)

	m.log.WithFields(logrus.Fields{
		"proposal": req.Proposal.String(),
		"voter":    req.Voter.String(),
		"support":  req.Support.String(),
		"weight":   weight,
	}).Info("Vote cast")

	return &VoteResult{
		Record: record,
		Instruction: interfaces.Instruction{
			ProgramID: m.config.ProgramID,
			Accounts: []interfaces.AccountMeta{
				{Pubkey: req.Voter, IsSigner: true, IsWritable: false},
				{Pubkey: req.Proposal, IsSigner: false, IsWritable: true},
			},
			Data: data,
		},
	}, nil
}

// ExecuteProposal pre-checks execution legality and builds the execute
// instruction. Quorum is inclusive (total == quorum passes), ties are not a
// pass (yes must strictly exceed no), and the timelock boundary is inclusive
// (now == timeLockEnd may execute).
func (m *StateMachine) ExecuteProposal(ctx context.Context, address, executor interfaces.Address) (*ExecuteResult, error) {
	proposal, err := m.loadProposal(ctx, address)
	if err != nil {
		return nil, err
	}

	if !proposal.HasReachedQuorum() {
		return nil, ErrQuorumNotReached.WithMessagef("%d of %d votes cast", proposal.Votes.Total(), proposal.Quorum)
	}
	if proposal.State == StateDefeated || proposal.State == StateCancelled || !proposal.IsPassed() {
		return nil, ErrProposalNotSucceeded.WithMessagef("yes=%d no=%d state=%s", proposal.Votes.Yes, proposal.Votes.No, proposal.State)
	}
	if proposal.Executed || proposal.State == StateExecuted {
		return nil, ErrAlreadyExecuted
	}
	now := m.clock.Now()
	if now.Unix() < proposal.TimeLockEnd {
		return nil, ErrTimelockNotElapsed.WithMessagef("executable at %d", proposal.TimeLockEnd)
	}

	data := []byte{instrExecuteProposal}

	m.log.WithFields(logrus.Fields{
		"proposal": address.String(),
		"executor": executor.String(),
		"yes":      proposal.Votes.Yes,
		"no":       proposal.Votes.No,
	}).Info("Proposal executed")

	return &ExecuteResult{
		Instruction: interfaces.Instruction{
			ProgramID: m.config.ProgramID,
			Accounts: []interfaces.AccountMeta{
				{Pubkey: executor, IsSigner: true, IsWritable: false},
				{Pubkey: address, IsSigner: false, IsWritable: true},
				{Pubkey: proposal.Proposer, IsSigner: false, IsWritable: true},
			},
			Data: data,
		},
		ExecutedAt: now,
	}, nil
}

// CancelProposal builds the cancellation instruction. Cancellation is only
// permitted from Draft or Active.
func (m *StateMachine) CancelProposal(ctx context.Context, address, canceller interfaces.Address) (*interfaces.Instruction, error) {
	proposal, err := m.loadProposal(ctx, address)
	if err != nil {
		return nil, err
	}

	if proposal.State != StateDraft && proposal.State != StateActive {
		return nil, ErrInvalidStateForCancellation.WithMessagef("state is %s", proposal.State)
	}

	m.log.WithFields(logrus.Fields{
		"proposal":  address.String(),
		"canceller": canceller.String(),
		"state":     proposal.State.String(),
	}).Info("Proposal cancelled")

	return &interfaces.Instruction{
		ProgramID: m.config.ProgramID,
		Accounts: []interfaces.AccountMeta{
			{Pubkey: canceller, IsSigner: true, IsWritable: false},
			{Pubkey: address, IsSigner: false, IsWritable: true},
		},
		Data: []byte{instrCancelProposal},
	}, nil
}

// GetProposalStatus returns the derived status view consumed by the SDK
// facade and CLI
func (m *StateMachine) GetProposalStatus(ctx context.Context, address interfaces.Address) (*ProposalStatus, error) {
	proposal, err := m.loadProposal(ctx, address)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	nowUnix := now.Unix()

	inWindow := nowUnix >= proposal.StartTime && nowUnix <= proposal.EndTime
	votable := proposal.State == StateDraft || proposal.State == StateActive

	status := &ProposalStatus{
		Address:    address,
		State:      proposal.State,
		Votes:      proposal.Votes,
		Quorum:     proposal.Quorum,
		IsActive:   proposal.State == StateActive && inWindow,
		IsPassed:   proposal.IsPassed(),
		IsExecuted: proposal.Executed || proposal.State == StateExecuted,
		IsExpired:  nowUnix > proposal.EndTime,
	}
	status.CanVote = votable && inWindow && !status.IsExecuted
	status.CanExecute = status.IsPassed && !status.IsExecuted &&
		proposal.State != StateCancelled && nowUnix >= proposal.TimeLockEnd

	if remaining := proposal.EndTime - nowUnix; remaining > 0 {
		status.TimeRemaining = time.Duration(remaining) * time.Second
	}

	return status, nil
}

// loadProposal reads and decodes the proposal account. An account whose
// state tag decoded to Unknown is surfaced as malformed rather than handed
// to the transition checks.
func (m *StateMachine) loadProposal(ctx context.Context, address interfaces.Address) (*Proposal, error) {
	info, err := m.reader.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, ErrConnectionFailed.WithCause(err)
	}
	if info == nil {
		return nil, ErrProposalNotFound.WithMessagef("%s", address.String())
	}

	proposal, err := m.store.Decode(info.Data)
	if err != nil {
		return nil, err
	}
	if proposal.State == StateUnknown {
		return nil, ErrMalformedData.WithMessagef("unrecognized state tag for %s", address.String())
	}
	proposal.Address = address
	return proposal, nil
}

// deriveProposalAddress hashes the proposer key with the proposal identity
// fields to produce a deterministic account address
func deriveProposalAddress(proposer interfaces.Address, title string, start, end int64) interfaces.Address {
	h := sha256.New()
	h.Write(proposer[:])
	h.Write([]byte(title))
	var ts [16]byte
	binary.LittleEndian.PutUint64(ts[0:8], uint64(start))
	binary.LittleEndian.PutUint64(ts[8:16], uint64(end))
	h.Write(ts[:])
	h.Write([]byte("glitch-governance-proposal"))

	var addr interfaces.Address
	copy(addr[:], h.Sum(nil))
	return addr
}
