/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: keypair.go
Description: Ed25519 keypair signer for the Glitch Gremlin SDK. Implements
the Signer capability interface for transaction submission; keys load from a
64-byte hex-encoded secret or generate fresh for throwaway test identities.
*/

package chain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
)

// Keypair signs transaction payloads with an ed25519 private key
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// GenerateKeypair creates a fresh random keypair
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// KeypairFromHex loads a keypair from a hex-encoded 64-byte ed25519 private
// key (seed plus public key halves)
func KeypairFromHex(s string) (*Keypair, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid keypair encoding: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair length: %d", len(raw))
	}
	priv := ed25519.PrivateKey(raw)
	return &Keypair{
		pub:  priv.Public().(ed25519.PublicKey),
		priv: priv,
	}, nil
}

// Pubkey returns the signer's public address
func (k *Keypair) Pubkey() interfaces.Address {
	var addr interfaces.Address
	copy(addr[:], k.pub)
	return addr
}

// Sign signs the message with the private key
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}
