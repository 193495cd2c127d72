/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: memory.go
Description: In-memory chain backend for the Glitch Gremlin SDK. Implements
the AccountReader, TransactionSender, and BalanceSource interfaces against
maps, for unit tests, dry runs, and local demos that must not touch a real
RPC endpoint.
*/

package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
)

// MemoryChain is a thread-safe in-memory stand-in for a chain RPC endpoint
type MemoryChain struct {
	mu          sync.Mutex
	accounts    map[interfaces.Address]*interfaces.AccountInfo
	balances    map[interfaces.Address]uint64
	delegations []interfaces.Delegation
	sent        []*interfaces.Transaction
	simResult   *interfaces.SimulationResult
	simFn       func(tx *interfaces.Transaction) *interfaces.SimulationResult
	nextSig     int
}

// NewMemoryChain creates an empty in-memory chain
func NewMemoryChain() *MemoryChain {
	return &MemoryChain{
		accounts: make(map[interfaces.Address]*interfaces.AccountInfo),
		balances: make(map[interfaces.Address]uint64),
	}
}

// SetAccount installs or replaces an account
func (m *MemoryChain) SetAccount(address interfaces.Address, info *interfaces.AccountInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[address] = info
}

// SetBalance installs a token balance for an owner
func (m *MemoryChain) SetBalance(owner interfaces.Address, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[owner] = amount
}

// AddDelegation records a delegation
func (m *MemoryChain) AddDelegation(d interfaces.Delegation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegations = append(m.delegations, d)
}

// SetSimulationResult fixes the result returned by SimulateTransaction
func (m *MemoryChain) SetSimulationResult(result *interfaces.SimulationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simResult = result
}

// SetSimulationFunc installs a per-transaction simulation callback, used by
// chaos campaign tests to fault-inject on specific payloads
func (m *MemoryChain) SetSimulationFunc(fn func(tx *interfaces.Transaction) *interfaces.SimulationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simFn = fn
}

// SentTransactions returns every transaction submitted so far
func (m *MemoryChain) SentTransactions() []*interfaces.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*interfaces.Transaction, len(m.sent))
	copy(out, m.sent)
	return out
}

// GetAccountInfo returns the stored account, or (nil, nil) when absent
func (m *MemoryChain) GetAccountInfo(ctx context.Context, address interfaces.Address) (*interfaces.AccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[address], nil
}

// GetBalance returns the stored balance, zero when absent
func (m *MemoryChain) GetBalance(ctx context.Context, owner interfaces.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[owner], nil
}

// GetDelegations returns delegations whose delegate matches
func (m *MemoryChain) GetDelegations(ctx context.Context, delegate interfaces.Address) ([]interfaces.Delegation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interfaces.Delegation
	for _, d := range m.delegations {
		if d.Delegate == delegate {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetLatestBlockhash returns a fixed synthetic blockhash
func (m *MemoryChain) GetLatestBlockhash(ctx context.Context) (string, error) {
	return "memhash", nil
}

// SendTransaction records the transaction and returns a synthetic signature
func (m *MemoryChain) SendTransaction(ctx context.Context, tx *interfaces.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, tx)
	m.nextSig++
	return fmt.Sprintf("memsig-%06d", m.nextSig), nil
}

// ConfirmTransaction always confirms immediately
func (m *MemoryChain) ConfirmTransaction(ctx context.Context, signature string) error {
	return nil
}

// SimulateTransaction returns the configured simulation result, success when
// none was configured
func (m *MemoryChain) SimulateTransaction(ctx context.Context, tx *interfaces.Transaction) (*interfaces.SimulationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simFn != nil {
		return m.simFn(tx), nil
	}
	if m.simResult != nil {
		return m.simResult, nil
	}
	return &interfaces.SimulationResult{Logs: []string{"Program log: ok"}}, nil
}
