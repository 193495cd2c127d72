/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sdk.go
Description: Top-level Glitch Gremlin SDK facade. Wires the governance state
machine, rate limiter, vote weight calculator, and chain backend behind a
single client type, and carries the chaos request lifecycle (create, finalize)
used to commission campaigns against target programs.
*/

package sdk

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/ratelimit"
	"github.com/sirupsen/logrus"
)

// Chaos request instruction tags understood by the chaos program
const (
	chaosInstrCreate uint8 = iota
	chaosInstrFinalize
)

// ChaosRequestStatus is the lifecycle state of a chaos request
type ChaosRequestStatus uint8

const (
	ChaosStatusPending ChaosRequestStatus = iota
	ChaosStatusInProgress
	ChaosStatusCompleted
	ChaosStatusFailed
)

// String returns the canonical name of the status
func (s ChaosRequestStatus) String() string {
	switch s {
	case ChaosStatusPending:
		return "pending"
	case ChaosStatusInProgress:
		return "in_progress"
	case ChaosStatusCompleted:
		return "completed"
	case ChaosStatusFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Backend is the full chain capability surface the SDK needs
type Backend interface {
	interfaces.AccountReader
	interfaces.TransactionSender
	interfaces.BalanceSource
	interfaces.BlockhashSource
}

// Config configures an SDK client
type Config struct {
	Endpoint          string             // Chain RPC endpoint
	GovernanceProgram interfaces.Address // Governance program address
	ChaosProgram      interfaces.Address // Chaos request program address
	DelegationProgram interfaces.Address // Delegation account program address

	RedisAddr     string // Counter store address; empty selects in-memory
	RedisPassword string
	RedisDB       int

	Governance governance.Config // Proposal/voting/staking bounds
	RateLimit  ratelimit.Config  // Per-actor request policy
}

// DefaultConfig returns an SDK configuration with the deployed governance and
// rate limit policies
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:   endpoint,
		Governance: governance.DefaultConfig(),
		RateLimit:  ratelimit.DefaultConfig(),
	}
}

// SDK is the facade over governance, rate limiting, and the chain backend.
// All collaborators are constructor-injected; there is no package-level
// instance.
type SDK struct {
	config  Config
	backend Backend
	signer  interfaces.Signer
	machine *governance.StateMachine
	limiter *ratelimit.Limiter
	clock   interfaces.Clock
	log     *logrus.Logger
}

// New creates an SDK client talking to a real RPC endpoint. The counter store
// is Redis when configured, in-memory otherwise.
func New(config Config, signer interfaces.Signer, log *logrus.Logger) (*SDK, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	client := chain.NewClient(config.Endpoint, config.DelegationProgram, log)

	var counters interfaces.CounterStore
	if config.RedisAddr != "" {
		counters = ratelimit.NewRedisStore(config.RedisAddr, config.RedisPassword, config.RedisDB)
	} else {
		counters = ratelimit.NewMemoryStore()
	}

	return NewWithBackend(config, client, counters, signer, nil, log)
}

// NewWithBackend creates an SDK client over an injected backend and counter
// store. Tests use this with the in-memory chain and store.
func NewWithBackend(config Config, backend Backend, counters interfaces.CounterStore, signer interfaces.Signer, clock interfaces.Clock, log *logrus.Logger) (*SDK, error) {
	if clock == nil {
		clock = interfaces.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	config.Governance.ProgramID = config.GovernanceProgram

	store := governance.NewProposalStore(log)
	weights := governance.NewVoteWeightCalculator(backend, nil, 1, log)
	machine := governance.NewStateMachine(config.Governance, backend, store, weights, clock, log)
	limiter := ratelimit.NewLimiter(config.RateLimit, counters, clock, log)

	return &SDK{
		config:  config,
		backend: backend,
		signer:  signer,
		machine: machine,
		limiter: limiter,
		clock:   clock,
		log:     log,
	}, nil
}

// StateMachine exposes the governance state machine for advanced callers
func (s *SDK) StateMachine() *governance.StateMachine {
	return s.machine
}

// ProposalReceipt is the outcome of a submitted proposal creation
type ProposalReceipt struct {
	ProposalAddress interfaces.Address `json:"proposal_address"`
	Signature       string             `json:"signature"`
}

// CreateProposal rate-limits the proposer, pre-checks the request, and
// submits the creation transaction
func (s *SDK) CreateProposal(ctx context.Context, req governance.CreateProposalRequest) (*ProposalReceipt, error) {
	if req.Proposer.IsZero() {
		req.Proposer = s.signer.Pubkey()
	}
	if err := s.limiter.CheckAndRecord(ctx, "gov:"+req.Proposer.String()); err != nil {
		return nil, err
	}

	result, err := s.machine.CreateProposal(ctx, req)
	if err != nil {
		return nil, err
	}

	sig, err := s.submit(ctx, result.Instruction)
	if err != nil {
		return nil, err
	}
	return &ProposalReceipt{ProposalAddress: result.ProposalAddress, Signature: sig}, nil
}

// Vote rate-limits the voter, pre-checks the vote, and submits the vote
// transaction. A zero weight derives the weight from balances and
// delegations.
func (s *SDK) Vote(ctx context.Context, proposal interfaces.Address, support governance.VoteSupport, weight uint64) (string, error) {
	voter := s.signer.Pubkey()
	if err := s.limiter.CheckAndRecord(ctx, "gov:"+voter.String()); err != nil {
		return "", err
	}

	result, err := s.machine.CastVote(ctx, governance.VoteRequest{
		Proposal: proposal,
		Voter:    voter,
		Support:  support,
		Weight:   weight,
	})
	if err != nil {
		return "", err
	}
	return s.submit(ctx, result.Instruction)
}

// ExecuteReceipt is the outcome of a submitted proposal execution
type ExecuteReceipt struct {
	Signature  string    `json:"signature"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ExecuteProposal pre-checks execution legality and submits the execute
// transaction
func (s *SDK) ExecuteProposal(ctx context.Context, proposal interfaces.Address) (*ExecuteReceipt, error) {
	result, err := s.machine.ExecuteProposal(ctx, proposal, s.signer.Pubkey())
	if err != nil {
		return nil, err
	}

	sig, err := s.submit(ctx, result.Instruction)
	if err != nil {
		return nil, err
	}
	return &ExecuteReceipt{Signature: sig, ExecutedAt: result.ExecutedAt}, nil
}

// CancelProposal submits the cancellation transaction
func (s *SDK) CancelProposal(ctx context.Context, proposal interfaces.Address) (string, error) {
	instr, err := s.machine.CancelProposal(ctx, proposal, s.signer.Pubkey())
	if err != nil {
		return "", err
	}
	return s.submit(ctx, *instr)
}

// GetProposalStatus returns the derived status view for a proposal
func (s *SDK) GetProposalStatus(ctx context.Context, proposal interfaces.Address) (*governance.ProposalStatus, error) {
	return s.machine.GetProposalStatus(ctx, proposal)
}

// ChaosRequestReceipt is the outcome of a submitted chaos request
type ChaosRequestReceipt struct {
	RequestAddress interfaces.Address `json:"request_address"`
	Signature      string             `json:"signature"`
}

// CreateChaosRequest commissions a chaos campaign against a target program,
// escrowing the given token amount. The request address is derived from the
// requester, the target, and the submission time.
func (s *SDK) CreateChaosRequest(ctx context.Context, params governance.TestParams, amount uint64) (*ChaosRequestReceipt, error) {
	requester := s.signer.Pubkey()
	if err := s.limiter.CheckAndRecord(ctx, "chaos:"+requester.String()); err != nil {
		return nil, err
	}
	if params.TargetProgram.IsZero() {
		return nil, governance.ErrInvalidProposalParameters.WithMessagef("target program must be set")
	}

	now := s.clock.Now()
	requestAddr := deriveChaosRequestAddress(requester, params.TargetProgram, now.UnixNano())

	data := make([]byte, 0, 1+8+32+4+1+1)
	data = append(data, chaosInstrCreate)
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = append(data, params.TargetProgram[:]...)
	data = binary.LittleEndian.AppendUint32(data, params.TestDuration)
	data = append(data, params.Intensity, params.SecurityLevel)

	sig, err := s.submit(ctx, interfaces.Instruction{
		ProgramID: s.config.ChaosProgram,
		Accounts: []interfaces.AccountMeta{
			{Pubkey: requester, IsSigner: true, IsWritable: true},
			{Pubkey: requestAddr, IsSigner: false, IsWritable: true},
		},
		Data: data,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request": requestAddr.String(),
		"target":  params.TargetProgram.String(),
		"amount":  amount,
	}).Info("Chaos request created")

	return &ChaosRequestReceipt{RequestAddress: requestAddr, Signature: sig}, nil
}

// FinalizeChaosRequest closes a chaos request with its terminal status and a
// reference to the published results
func (s *SDK) FinalizeChaosRequest(ctx context.Context, request interfaces.Address, status ChaosRequestStatus, resultRef string) (string, error) {
	if status != ChaosStatusCompleted && status != ChaosStatusFailed {
		return "", governance.ErrInvalidProposalParameters.WithMessagef("finalize status must be terminal, got %s", status)
	}

	data := make([]byte, 0, 1+1+4+len(resultRef))
	data = append(data, chaosInstrFinalize, byte(status))
	data = binary.LittleEndian.AppendUint32(data, uint32(len(resultRef)))
	data = append(data, resultRef...)

	sig, err := s.submit(ctx, interfaces.Instruction{
		ProgramID: s.config.ChaosProgram,
		Accounts: []interfaces.AccountMeta{
			{Pubkey: s.signer.Pubkey(), IsSigner: true, IsWritable: false},
			{Pubkey: request, IsSigner: false, IsWritable: true},
		},
		Data: data,
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"request": request.String(),
		"status":  status.String(),
		"ref":     resultRef,
	}).Info("Chaos request finalized")

	return sig, nil
}

// submit assembles, signs, sends, and confirms a single-instruction
// transaction
func (s *SDK) submit(ctx context.Context, instr interfaces.Instruction) (string, error) {
	blockhash, err := s.backend.GetLatestBlockhash(ctx)
	if err != nil {
		return "", governance.ErrConnectionFailed.WithCause(err)
	}

	tx := &interfaces.Transaction{
		Instructions:    []interfaces.Instruction{instr},
		Payer:           s.signer.Pubkey(),
		RecentBlockhash: blockhash,
	}

	sig, err := s.signer.Sign(chain.SerializeMessage(tx))
	if err != nil {
		return "", governance.ErrTransactionFailed.WithCause(err)
	}
	tx.Signatures = [][]byte{sig}

	signature, err := s.backend.SendTransaction(ctx, tx)
	if err != nil {
		return "", governance.ErrTransactionFailed.WithCause(err)
	}
	if err := s.backend.ConfirmTransaction(ctx, signature); err != nil {
		return "", governance.ErrTransactionFailed.WithCause(err)
	}
	return signature, nil
}

// deriveChaosRequestAddress hashes the requester, target, and submission
// nonce into a deterministic request account address
func deriveChaosRequestAddress(requester, target interfaces.Address, nonce int64) interfaces.Address {
	h := sha256.New()
	h.Write(requester[:])
	h.Write(target[:])
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(nonce))
	h.Write(n[:])
	h.Write([]byte("glitch-chaos-request"))

	var addr interfaces.Address
	copy(addr[:], h.Sum(nil))
	return addr
}
