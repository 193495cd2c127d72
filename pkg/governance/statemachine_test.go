/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: statemachine_test.go
Description: Tests for the governance state machine. Covers the proposal
lifecycle end to end: creation validation, voting window enforcement, double
vote rejection, quorum and timelock boundaries, execution idempotence, and
cancellation rules, all against the in-memory chain backend.
*/

package governance_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable Clock for boundary tests
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

// machineFixture bundles a state machine with its in-memory chain and clock
type machineFixture struct {
	machine *governance.StateMachine
	backend *chain.MemoryChain
	store   *governance.ProposalStore
	clock   *fakeClock
	config  governance.Config
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()

	backend := chain.NewMemoryChain()
	store := governance.NewProposalStore(nil)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	config := governance.DefaultConfig()

	weights := governance.NewVoteWeightCalculator(backend, nil, 1, nil)
	machine := governance.NewStateMachine(config, backend, store, weights, clock, nil)

	return &machineFixture{
		machine: machine,
		backend: backend,
		store:   store,
		clock:   clock,
		config:  config,
	}
}

// installProposal encodes the proposal into the in-memory chain at the given
// address
func (f *machineFixture) installProposal(t *testing.T, addr interfaces.Address, p *governance.Proposal) {
	t.Helper()
	buf, err := f.store.Encode(p)
	require.NoError(t, err)
	f.backend.SetAccount(addr, &interfaces.AccountInfo{Data: buf})
}

// activeProposal returns a proposal whose voting window brackets the fixture
// clock
func (f *machineFixture) activeProposal() *governance.Proposal {
	now := f.clock.t.Unix()
	return &governance.Proposal{
		Title:       "Campaign proposal",
		Description: "Chaos campaign against the target",
		Proposer:    testAddress(1),
		StartTime:   now - 3600,
		EndTime:     now + 86400,
		TimeLockEnd: now + 86400 + 86400,
		Quorum:      100,
		State:       governance.StateActive,
	}
}

// TestCreateProposalValidation exercises creation parameter checks
func TestCreateProposalValidation(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	valid := governance.CreateProposalRequest{
		Proposer:      testAddress(1),
		Title:         "Chaos for staking program",
		Description:   "Probe arithmetic paths",
		StakingAmount: 1000,
		VotingPeriod:  7 * 24 * time.Hour,
	}

	result, err := f.machine.CreateProposal(ctx, valid)
	require.NoError(t, err)
	assert.False(t, result.ProposalAddress.IsZero())
	assert.Equal(t, governance.StateDraft, result.Proposal.State)
	assert.NotEmpty(t, result.Instruction.Data)

	// Same request derives the same address.
	again, err := f.machine.CreateProposal(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, result.ProposalAddress, again.ProposalAddress)

	// Voting period below the minimum.
	short := valid
	short.VotingPeriod = time.Hour
	_, err = f.machine.CreateProposal(ctx, short)
	assert.ErrorIs(t, err, governance.ErrInvalidVotingPeriod)

	// Voting period above the maximum.
	long := valid
	long.VotingPeriod = 30 * 24 * time.Hour
	_, err = f.machine.CreateProposal(ctx, long)
	assert.ErrorIs(t, err, governance.ErrInvalidVotingPeriod)

	// Stake below the minimum.
	poor := valid
	poor.StakingAmount = 999
	_, err = f.machine.CreateProposal(ctx, poor)
	assert.ErrorIs(t, err, governance.ErrInsufficientStake)

	// Empty title.
	untitled := valid
	untitled.Title = ""
	_, err = f.machine.CreateProposal(ctx, untitled)
	assert.ErrorIs(t, err, governance.ErrInvalidProposalParameters)
}

// TestCastVote exercises the voting pre-checks
func TestCastVote(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	voter := testAddress(2)
	f.installProposal(t, addr, f.activeProposal())
	f.backend.SetBalance(voter, 150)

	result, err := f.machine.CastVote(ctx, governance.VoteRequest{
		Proposal: addr,
		Voter:    voter,
		Support:  governance.VoteYes,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(150), result.Record.Weight)
	assert.Equal(t, governance.VoteYes, result.Record.Support)
	assert.NotEmpty(t, result.Instruction.Data)
}

// TestCastVoteAlreadyVoted verifies the one-vote-per-voter rule
func TestCastVoteAlreadyVoted(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	voter := testAddress(2)
	p := f.activeProposal()
	p.VoteRecords = []governance.VoteRecord{
		{Voter: voter, Support: governance.VoteYes, Weight: 100, Timestamp: f.clock.t.Unix()},
	}
	f.installProposal(t, addr, p)
	f.backend.SetBalance(voter, 150)

	_, err := f.machine.CastVote(ctx, governance.VoteRequest{
		Proposal: addr,
		Voter:    voter,
		Support:  governance.VoteNo,
	})
	assert.ErrorIs(t, err, governance.ErrAlreadyVoted)
}

// TestCastVoteWindow verifies votes outside the voting window are rejected
func TestCastVoteWindow(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	voter := testAddress(2)
	f.backend.SetBalance(voter, 150)

	// Not started yet.
	early := f.activeProposal()
	early.StartTime = f.clock.t.Unix() + 3600
	f.installProposal(t, addr, early)
	_, err := f.machine.CastVote(ctx, governance.VoteRequest{Proposal: addr, Voter: voter, Support: governance.VoteYes})
	assert.ErrorIs(t, err, governance.ErrVotingNotStarted)

	// Already ended.
	late := f.activeProposal()
	late.EndTime = f.clock.t.Unix() - 1
	f.installProposal(t, addr, late)
	_, err = f.machine.CastVote(ctx, governance.VoteRequest{Proposal: addr, Voter: voter, Support: governance.VoteYes})
	assert.ErrorIs(t, err, governance.ErrVotingEnded)
}

// TestCastVoteTerminalState verifies proposals in a terminal state reject
// votes even while their voting window is still open, matching the status
// view's CanVote
func TestCastVoteTerminalState(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	voter := testAddress(2)
	f.backend.SetBalance(voter, 150)

	cancelled := f.activeProposal()
	cancelled.State = governance.StateCancelled
	f.installProposal(t, addr, cancelled)

	status, err := f.machine.GetProposalStatus(ctx, addr)
	require.NoError(t, err)
	assert.False(t, status.CanVote)

	_, err = f.machine.CastVote(ctx, governance.VoteRequest{Proposal: addr, Voter: voter, Support: governance.VoteYes})
	assert.ErrorIs(t, err, governance.ErrProposalNotActive)

	executed := f.activeProposal()
	executed.State = governance.StateExecuted
	f.installProposal(t, addr, executed)

	_, err = f.machine.CastVote(ctx, governance.VoteRequest{Proposal: addr, Voter: voter, Support: governance.VoteNo})
	assert.ErrorIs(t, err, governance.ErrProposalNotActive)
}

// TestCastVoteWeightClamp verifies derived weights above the u32 wire
// maximum are clamped, never truncated
func TestCastVoteWeightClamp(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	voter := testAddress(2)
	f.installProposal(t, addr, f.activeProposal())
	f.backend.SetBalance(voter, (1<<32)+5)

	result, err := f.machine.CastVote(ctx, governance.VoteRequest{
		Proposal: addr,
		Voter:    voter,
		Support:  governance.VoteYes,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), result.Record.Weight)
}

// TestCastVoteInsufficientPower verifies zero-weight voters cannot vote
func TestCastVoteInsufficientPower(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	f.installProposal(t, addr, f.activeProposal())

	// No balance, no delegations: derived weight is zero.
	_, err := f.machine.CastVote(ctx, governance.VoteRequest{
		Proposal: addr,
		Voter:    testAddress(2),
		Support:  governance.VoteYes,
	})
	assert.ErrorIs(t, err, governance.ErrInsufficientVotingPower)
}

// executableProposal returns a passed proposal whose voting window and
// timelock are both behind the fixture clock
func (f *machineFixture) executableProposal() *governance.Proposal {
	now := f.clock.t.Unix()
	p := f.activeProposal()
	p.StartTime = now - 20*86400
	p.EndTime = now - 10*86400
	p.TimeLockEnd = now - 86400
	p.State = governance.StateSucceeded
	p.Votes = governance.VoteCounts{Yes: 150, No: 50}
	return p
}

// TestExecuteProposal verifies the passing scenario executes
func TestExecuteProposal(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	f.installProposal(t, addr, f.executableProposal())

	result, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Instruction.Data)
	assert.Equal(t, f.clock.t, result.ExecutedAt)
}

// TestExecuteQuorumNotReached verifies execution requires quorum
func TestExecuteQuorumNotReached(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.Votes = governance.VoteCounts{Yes: 60, No: 39} // 99 of 100
	f.installProposal(t, addr, p)

	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.ErrorIs(t, err, governance.ErrQuorumNotReached)
}

// TestExecuteQuorumInclusive verifies total == quorum is enough
func TestExecuteQuorumInclusive(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.Votes = governance.VoteCounts{Yes: 60, No: 40} // exactly 100
	f.installProposal(t, addr, p)

	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.NoError(t, err)
}

// TestExecuteDefeated verifies a majority-no proposal cannot execute
func TestExecuteDefeated(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.Votes = governance.VoteCounts{Yes: 0, No: 100}
	p.State = governance.StateActive
	f.installProposal(t, addr, p)

	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.ErrorIs(t, err, governance.ErrProposalNotSucceeded)
}

// TestExecuteTie verifies a tie never executes
func TestExecuteTie(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.Votes = governance.VoteCounts{Yes: 50, No: 50}
	f.installProposal(t, addr, p)

	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.ErrorIs(t, err, governance.ErrProposalNotSucceeded)
}

// TestExecuteAlreadyExecuted verifies execution is not repeatable
func TestExecuteAlreadyExecuted(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.Executed = true
	p.State = governance.StateExecuted
	f.installProposal(t, addr, p)

	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.ErrorIs(t, err, governance.ErrAlreadyExecuted)
}

// TestExecuteTimelockBoundary verifies the inclusive timelock boundary
func TestExecuteTimelockBoundary(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.executableProposal()
	p.TimeLockEnd = f.clock.t.Unix()
	f.installProposal(t, addr, p)

	// now == timeLockEnd: executable.
	_, err := f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.NoError(t, err)

	// One second before the boundary: not executable.
	f.clock.t = f.clock.t.Add(-time.Second)
	_, err = f.machine.ExecuteProposal(ctx, addr, testAddress(5))
	assert.ErrorIs(t, err, governance.ErrTimelockNotElapsed)
}

// TestCancelProposal verifies cancellation is limited to draft and active
func TestCancelProposal(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	f.installProposal(t, addr, f.activeProposal())

	instr, err := f.machine.CancelProposal(ctx, addr, testAddress(1))
	require.NoError(t, err)
	assert.NotEmpty(t, instr.Data)

	executed := f.activeProposal()
	executed.State = governance.StateExecuted
	f.installProposal(t, addr, executed)

	_, err = f.machine.CancelProposal(ctx, addr, testAddress(1))
	assert.ErrorIs(t, err, governance.ErrInvalidStateForCancellation)
}

// TestProposalNotFound verifies missing accounts surface the right error
func TestProposalNotFound(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	_, err := f.machine.GetProposalStatus(ctx, testAddress(99))
	assert.ErrorIs(t, err, governance.ErrProposalNotFound)
}

// TestLoadUnknownState verifies proposals with unrecognized state tags are
// surfaced as malformed rather than processed
func TestLoadUnknownState(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	p := f.activeProposal()
	buf, err := f.store.Encode(p)
	require.NoError(t, err)
	// Corrupt the state tag (right before the trailing empty vote count).
	buf[len(buf)-5] = 200
	f.backend.SetAccount(addr, &interfaces.AccountInfo{Data: buf})

	_, err = f.machine.GetProposalStatus(ctx, addr)
	assert.ErrorIs(t, err, governance.ErrMalformedData)
}

// TestGetProposalStatus verifies the derived status booleans
func TestGetProposalStatus(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	addr := testAddress(10)
	active := f.activeProposal()
	active.Votes = governance.VoteCounts{Yes: 10, No: 5}
	f.installProposal(t, addr, active)

	status, err := f.machine.GetProposalStatus(ctx, addr)
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	assert.True(t, status.CanVote, "voting ignores quorum")
	assert.False(t, status.IsPassed, "quorum not reached yet")
	assert.False(t, status.CanExecute)
	assert.Greater(t, status.TimeRemaining, time.Duration(0))

	exec := f.executableProposal()
	f.installProposal(t, addr, exec)

	status, err = f.machine.GetProposalStatus(ctx, addr)
	require.NoError(t, err)
	assert.False(t, status.IsActive)
	assert.True(t, status.IsPassed)
	assert.True(t, status.CanExecute)
	assert.False(t, status.CanVote)
	assert.True(t, status.IsExpired)
}
