/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mutators.go
Description: Mutation strategies for chaos-testing on-chain programs.
Implements bit flipping, byte substitution, arithmetic mutation of
little-endian amount fields, account-key substitution, and length mutation
over instruction payloads. Provides adversarial input diversity for chaos
campaigns against a target program.
*/

package strategies

import (
	"math/rand"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/google/uuid"
)

// newChildCase clones the parent test case bookkeeping for a mutated payload
func newChildCase(parent *interfaces.ChaosTestCase, data []byte, mutator string, rate float64) *interfaces.ChaosTestCase {
	child := &interfaces.ChaosTestCase{
		ID:         uuid.NewString(),
		Data:       data,
		ParentID:   parent.ID,
		Generation: parent.Generation + 1,
		CreatedAt:  time.Now(),
		Priority:   parent.Priority,
		Metadata:   make(map[string]interface{}),
	}
	child.Metadata["mutator"] = mutator
	child.Metadata["mutation_rate"] = rate
	return child
}

// BitFlipMutator flips individual bits in the instruction payload for
// fine-grained mutations
type BitFlipMutator struct {
	mutationRate float64 // Probability of mutation per bit
}

// NewBitFlipMutator creates a new bit flip mutator
func NewBitFlipMutator(mutationRate float64) *BitFlipMutator {
	return &BitFlipMutator{mutationRate: mutationRate}
}

// Mutate creates a new test case by flipping bits in the original
func (m *BitFlipMutator) Mutate(testCase *interfaces.ChaosTestCase) (*interfaces.ChaosTestCase, error) {
	mutatedData := make([]byte, len(testCase.Data))
	copy(mutatedData, testCase.Data)

	for i := 0; i < len(mutatedData)*8; i++ {
		if rand.Float64() < m.mutationRate {
			mutatedData[i/8] ^= 1 << (i % 8)
		}
	}

	return newChildCase(testCase, mutatedData, m.Name(), m.mutationRate), nil
}

// Name returns the name of this mutator
func (m *BitFlipMutator) Name() string { return "BitFlipMutator" }

// Description returns a description of this mutator
func (m *BitFlipMutator) Description() string {
	return "Flips individual bits in instruction payloads for fine-grained mutations"
}

// ByteSubstitutionMutator replaces payload bytes with random values
type ByteSubstitutionMutator struct {
	mutationRate float64 // Probability of mutation per byte
}

// NewByteSubstitutionMutator creates a new byte substitution mutator
func NewByteSubstitutionMutator(mutationRate float64) *ByteSubstitutionMutator {
	return &ByteSubstitutionMutator{mutationRate: mutationRate}
}

// Mutate creates a new test case by substituting bytes in the original
func (m *ByteSubstitutionMutator) Mutate(testCase *interfaces.ChaosTestCase) (*interfaces.ChaosTestCase, error) {
	mutatedData := make([]byte, len(testCase.Data))
	copy(mutatedData, testCase.Data)

	for i := range mutatedData {
		if rand.Float64() < m.mutationRate {
			mutatedData[i] = byte(rand.Intn(256))
		}
	}

	return newChildCase(testCase, mutatedData, m.Name(), m.mutationRate), nil
}

// Name returns the name of this mutator
func (m *ByteSubstitutionMutator) Name() string { return "ByteSubstitutionMutator" }

// Description returns a description of this mutator
func (m *ByteSubstitutionMutator) Description() string {
	return "Substitutes payload bytes with random values for coarse-grained mutations"
}

// AmountMutator targets little-endian u64 amount and lamport fields,
// replacing them with boundary values that historically trigger overflow and
// underflow paths in token programs
type AmountMutator struct {
	mutationRate float64 // Probability of mutation per candidate field
}

// NewAmountMutator creates a new amount mutator
func NewAmountMutator(mutationRate float64) *AmountMutator {
	return &AmountMutator{mutationRate: mutationRate}
}

// boundary values favored for amount fields
var amountBoundaries = []uint64{
	0,
	1,
	1<<32 - 1,
	1 << 32,
	1<<63 - 1,
	1 << 63,
	1<<64 - 1,
}

// Mutate creates a new test case with amount fields pushed to boundaries
func (m *AmountMutator) Mutate(testCase *interfaces.ChaosTestCase) (*interfaces.ChaosTestCase, error) {
	mutatedData := make([]byte, len(testCase.Data))
	copy(mutatedData, testCase.Data)

	for i := 0; i+8 <= len(mutatedData); i++ {
		if rand.Float64() < m.mutationRate {
			value := amountBoundaries[rand.Intn(len(amountBoundaries))]
			for b := 0; b < 8; b++ {
				mutatedData[i+b] = byte(value >> (8 * b))
			}
		}
	}

	return newChildCase(testCase, mutatedData, m.Name(), m.mutationRate), nil
}

// Name returns the name of this mutator
func (m *AmountMutator) Name() string { return "AmountMutator" }

// Description returns a description of this mutator
func (m *AmountMutator) Description() string {
	return "Pushes little-endian u64 amount fields to overflow and underflow boundaries"
}

// AccountKeyMutator rewrites 32-byte windows that look like account keys,
// substituting the all-zero key, repeated-byte keys, or random keys to probe
// owner and signer checks
type AccountKeyMutator struct {
	mutationRate float64 // Probability of mutation per aligned key window
}

// NewAccountKeyMutator creates a new account key mutator
func NewAccountKeyMutator(mutationRate float64) *AccountKeyMutator {
	return &AccountKeyMutator{mutationRate: mutationRate}
}

// Mutate creates a new test case with substituted account keys
func (m *AccountKeyMutator) Mutate(testCase *interfaces.ChaosTestCase) (*interfaces.ChaosTestCase, error) {
	mutatedData := make([]byte, len(testCase.Data))
	copy(mutatedData, testCase.Data)

	// Walk aligned 32-byte windows; instruction layouts place keys on
	// 32-byte boundaries after the tag byte.
	for i := 0; i+32 <= len(mutatedData); i += 32 {
		if rand.Float64() >= m.mutationRate {
			continue
		}
		switch rand.Intn(3) {
		case 0:
			for b := 0; b < 32; b++ {
				mutatedData[i+b] = 0
			}
		case 1:
			fill := byte(rand.Intn(256))
			for b := 0; b < 32; b++ {
				mutatedData[i+b] = fill
			}
		default:
			rand.Read(mutatedData[i : i+32])
		}
	}

	return newChildCase(testCase, mutatedData, m.Name(), m.mutationRate), nil
}

// Name returns the name of this mutator
func (m *AccountKeyMutator) Name() string { return "AccountKeyMutator" }

// Description returns a description of this mutator
func (m *AccountKeyMutator) Description() string {
	return "Substitutes 32-byte account key windows to probe owner and signer checks"
}

// LengthMutator truncates or extends the payload to probe bounds checking in
// deserializers
type LengthMutator struct {
	mutationRate float64 // Probability of applying a length mutation
}

// NewLengthMutator creates a new length mutator
func NewLengthMutator(mutationRate float64) *LengthMutator {
	return &LengthMutator{mutationRate: mutationRate}
}

// Mutate creates a new test case with a truncated or extended payload
func (m *LengthMutator) Mutate(testCase *interfaces.ChaosTestCase) (*interfaces.ChaosTestCase, error) {
	mutatedData := make([]byte, len(testCase.Data))
	copy(mutatedData, testCase.Data)

	if rand.Float64() < m.mutationRate && len(mutatedData) > 0 {
		if rand.Intn(2) == 0 {
			// Truncate at a random point, including down to empty
			mutatedData = mutatedData[:rand.Intn(len(mutatedData))]
		} else {
			// Extend with random bytes, up to double the original size
			padding := make([]byte, 1+rand.Intn(len(mutatedData)+1))
			rand.Read(padding)
			mutatedData = append(mutatedData, padding...)
		}
	}

	return newChildCase(testCase, mutatedData, m.Name(), m.mutationRate), nil
}

// Name returns the name of this mutator
func (m *LengthMutator) Name() string { return "LengthMutator" }

// Description returns a description of this mutator
func (m *LengthMutator) Description() string {
	return "Truncates or extends instruction payloads to probe bounds checking"
}
