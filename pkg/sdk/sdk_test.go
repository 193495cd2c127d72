/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sdk_test.go
Description: Tests for the SDK facade. Covers the proposal lifecycle through
the in-memory chain, rate limiting of mutating actions, chaos request creation
and finalization, and transaction assembly with the injected signer.
*/

package sdk_test

import (
	"context"
	"testing"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/ratelimit"
	"github.com/glitchgremlin/glitch-sdk/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable Clock shared by the SDK and the counter store
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

type sdkFixture struct {
	client  *sdk.SDK
	backend *chain.MemoryChain
	signer  *chain.Keypair
	clock   *fakeClock
}

func newSDKFixture(t *testing.T) *sdkFixture {
	t.Helper()

	signer, err := chain.GenerateKeypair()
	require.NoError(t, err)

	backend := chain.NewMemoryChain()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}

	store := ratelimit.NewMemoryStore()
	store.SetNowFunc(clock.Now)

	config := sdk.DefaultConfig("")
	config.GovernanceProgram = interfaces.Address{1}
	config.ChaosProgram = interfaces.Address{2}
	// A generous window so lifecycle tests are not throttled.
	config.RateLimit = ratelimit.Config{Cooldown: 0, Window: time.Minute, MaxRequests: 100}

	client, err := sdk.NewWithBackend(config, backend, store, signer, clock, nil)
	require.NoError(t, err)

	return &sdkFixture{client: client, backend: backend, signer: signer, clock: clock}
}

// TestCreateProposalSubmits verifies proposal creation sends a signed
// transaction
func TestCreateProposalSubmits(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	receipt, err := f.client.CreateProposal(ctx, governance.CreateProposalRequest{
		Title:         "Chaos for the vault program",
		Description:   "Probe overflow paths in deposits",
		StakingAmount: 1000,
		VotingPeriod:  7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	assert.False(t, receipt.ProposalAddress.IsZero())
	assert.NotEmpty(t, receipt.Signature)

	sent := f.backend.SentTransactions()
	require.Len(t, sent, 1)
	assert.Equal(t, f.signer.Pubkey(), sent[0].Payer)
	require.Len(t, sent[0].Signatures, 1)
	assert.NotEmpty(t, sent[0].Signatures[0])
	assert.Equal(t, "memhash", sent[0].RecentBlockhash)
}

// TestVoteLifecycle verifies voting through the facade against an installed
// proposal
func TestVoteLifecycle(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	now := f.clock.t.Unix()
	proposal := &governance.Proposal{
		Title:       "Installed proposal",
		Description: "Voting window open",
		Proposer:    interfaces.Address{9},
		StartTime:   now - 3600,
		EndTime:     now + 86400,
		TimeLockEnd: now + 2*86400,
		Quorum:      100,
		State:       governance.StateActive,
	}
	store := governance.NewProposalStore(nil)
	buf, err := store.Encode(proposal)
	require.NoError(t, err)

	addr := interfaces.Address{7}
	f.backend.SetAccount(addr, &interfaces.AccountInfo{Data: buf})
	f.backend.SetBalance(f.signer.Pubkey(), 250)

	signature, err := f.client.Vote(ctx, addr, governance.VoteYes, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, signature)

	status, err := f.client.GetProposalStatus(ctx, addr)
	require.NoError(t, err)
	assert.True(t, status.CanVote)
}

// TestExecuteProposalViaFacade verifies execution of a passed proposal
func TestExecuteProposalViaFacade(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	now := f.clock.t.Unix()
	proposal := &governance.Proposal{
		Title:       "Passed proposal",
		Description: "Ready for execution",
		Proposer:    interfaces.Address{9},
		StartTime:   now - 20*86400,
		EndTime:     now - 10*86400,
		TimeLockEnd: now - 86400,
		Votes:       governance.VoteCounts{Yes: 150, No: 50},
		Quorum:      100,
		State:       governance.StateSucceeded,
	}
	store := governance.NewProposalStore(nil)
	buf, err := store.Encode(proposal)
	require.NoError(t, err)

	addr := interfaces.Address{7}
	f.backend.SetAccount(addr, &interfaces.AccountInfo{Data: buf})

	receipt, err := f.client.ExecuteProposal(ctx, addr)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.Signature)
	assert.Equal(t, f.clock.t, receipt.ExecutedAt)
}

// TestFacadeRateLimiting verifies mutating actions are throttled per actor
func TestFacadeRateLimiting(t *testing.T) {
	signer, err := chain.GenerateKeypair()
	require.NoError(t, err)

	backend := chain.NewMemoryChain()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	store := ratelimit.NewMemoryStore()
	store.SetNowFunc(clock.Now)

	config := sdk.DefaultConfig("")
	config.GovernanceProgram = interfaces.Address{1}
	config.ChaosProgram = interfaces.Address{2}
	config.RateLimit = ratelimit.Config{Cooldown: 0, Window: time.Minute, MaxRequests: 2}

	client, err := sdk.NewWithBackend(config, backend, store, signer, clock, nil)
	require.NoError(t, err)

	ctx := context.Background()
	req := governance.CreateProposalRequest{
		Title:         "Throttled",
		Description:   "Rate limit test",
		StakingAmount: 1000,
		VotingPeriod:  7 * 24 * time.Hour,
	}

	_, err = client.CreateProposal(ctx, req)
	require.NoError(t, err)
	_, err = client.CreateProposal(ctx, req)
	require.NoError(t, err)

	_, err = client.CreateProposal(ctx, req)
	assert.ErrorIs(t, err, governance.ErrRateLimitExceeded)
}

// TestChaosRequestLifecycle verifies chaos request creation and finalization
func TestChaosRequestLifecycle(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	params := governance.TestParams{
		TargetProgram: interfaces.Address{5},
		TestDuration:  300,
		Intensity:     7,
		SecurityLevel: 2,
	}

	receipt, err := f.client.CreateChaosRequest(ctx, params, 5000)
	require.NoError(t, err)
	assert.False(t, receipt.RequestAddress.IsZero())
	assert.NotEmpty(t, receipt.Signature)

	signature, err := f.client.FinalizeChaosRequest(ctx, receipt.RequestAddress, sdk.ChaosStatusCompleted, "ipfs://results")
	require.NoError(t, err)
	assert.NotEmpty(t, signature)

	// Two transactions: create and finalize, both against the chaos program.
	sent := f.backend.SentTransactions()
	require.Len(t, sent, 2)
	for _, tx := range sent {
		require.Len(t, tx.Instructions, 1)
		assert.Equal(t, interfaces.Address{2}, tx.Instructions[0].ProgramID)
	}
}

// TestChaosRequestValidation verifies target and terminal status checks
func TestChaosRequestValidation(t *testing.T) {
	f := newSDKFixture(t)
	ctx := context.Background()

	// Missing target program.
	_, err := f.client.CreateChaosRequest(ctx, governance.TestParams{}, 5000)
	assert.ErrorIs(t, err, governance.ErrInvalidProposalParameters)

	// Non-terminal finalize status.
	_, err = f.client.FinalizeChaosRequest(ctx, interfaces.Address{5}, sdk.ChaosStatusPending, "")
	assert.ErrorIs(t, err, governance.ErrInvalidProposalParameters)
}
