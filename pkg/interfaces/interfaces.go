/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared types and capability interfaces for the Glitch Gremlin SDK.
Defines the narrow collaborator contracts (account reads, transaction submission,
balance lookup, signing, counter storage) used across all packages to break
import cycles and keep external systems behind small, testable seams.
*/

package interfaces

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
)

// Address is a 32-byte on-chain account address
type Address [32]byte

// String returns the hex encoding of the address
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero address
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressFromString parses a hex-encoded 32-byte address
func AddressFromString(s string) (Address, error) {
	var addr Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("invalid address length: %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// AccountInfo is the view of an on-chain account returned by an AccountReader
type AccountInfo struct {
	Data       []byte  // Raw account data
	Owner      Address // Program that owns the account
	Lamports   uint64  // Account balance in lamports
	Executable bool    // Whether the account holds a program
	RentEpoch  uint64  // Next epoch rent is due
}

// AccountMeta describes an account referenced by an instruction
type AccountMeta struct {
	Pubkey     Address
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation to be placed in a transaction
type Instruction struct {
	ProgramID Address
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is an unsigned (or partially signed) transaction envelope.
// Signing and fee payment are the caller's concern via a Signer.
type Transaction struct {
	Instructions    []Instruction
	Payer           Address
	RecentBlockhash string
	Signatures      [][]byte
}

// SimulationResult is the outcome of a transaction simulation
type SimulationResult struct {
	Err           string   // Program error string, empty on success
	Logs          []string // Program log lines
	UnitsConsumed uint64   // Compute units consumed
}

// Delegation records voting weight assigned from one identity to another
type Delegation struct {
	Delegator Address
	Delegate  Address
	Amount    uint64
}

// AccountReader reads on-chain account state. A nil AccountInfo with a nil
// error means the account does not exist.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, address Address) (*AccountInfo, error)
}

// TransactionSender submits, confirms, and simulates transactions
type TransactionSender interface {
	SendTransaction(ctx context.Context, tx *Transaction) (string, error)
	ConfirmTransaction(ctx context.Context, signature string) error
	SimulateTransaction(ctx context.Context, tx *Transaction) (*SimulationResult, error)
}

// BlockhashSource provides recent blockhashes for transaction assembly
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
}

// BalanceSource looks up token balances and delegation records
type BalanceSource interface {
	GetBalance(ctx context.Context, owner Address) (uint64, error)
	GetDelegations(ctx context.Context, delegate Address) ([]Delegation, error)
}

// Signer signs transaction payloads on behalf of an identity
type Signer interface {
	Pubkey() Address
	Sign(message []byte) ([]byte, error)
}

// CounterStore is the shared counter backend used by the rate limiter.
// Incr must be atomic with respect to concurrent callers; Get returns an
// empty string for missing keys.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	FlushAll(ctx context.Context) error
}

// Clock abstracts time for timelock and voting-window checks
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside of tests
type SystemClock struct{}

// Now returns the current wall-clock time
func (SystemClock) Now() time.Time { return time.Now() }

// ChaosTestCase represents a single adversarial input for a chaos campaign
type ChaosTestCase struct {
	ID         string
	Data       []byte
	ParentID   string
	Generation int
	CreatedAt  time.Time
	Priority   int
	Metadata   map[string]interface{}
}

// ChaosResult represents the outcome of simulating one chaos test case
type ChaosResult struct {
	TestCaseID    string
	Err           string
	Logs          []string
	Duration      time.Duration
	UnitsConsumed uint64
	Category      string // Vulnerability category from the failure classifier
	Severity      string // Classifier severity (info, low, medium, high, critical)
}

// Mutator is a pluggable mutation strategy for chaos test cases
type Mutator interface {
	Mutate(testCase *ChaosTestCase) (*ChaosTestCase, error)
	Name() string
	Description() string
}
