/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: Minimal JSON-RPC chain client for the Glitch Gremlin SDK.
Implements the AccountReader, TransactionSender, and BalanceSource capability
interfaces over the Solana HTTP RPC API. This is deliberately a thin shim:
retry, backoff, and commitment tuning belong to the RPC endpoint
configuration, not to the governance core.
*/

package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// delegationRecordSize is the encoded size of one delegation account:
// delegator (32) + delegate (32) + amount (8)
const delegationRecordSize = 32 + 32 + 8

// Client talks to a chain RPC endpoint over JSON-RPC 2.0
type Client struct {
	endpoint          string
	httpClient        *http.Client
	delegationProgram interfaces.Address
	log               *logrus.Logger
	requestID         atomic.Uint64
}

// NewClient creates a chain client for the given RPC endpoint. The
// delegation program address is used to enumerate delegation accounts for
// vote weight lookups.
func NewClient(endpoint string, delegationProgram interfaces.Address, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		endpoint:          endpoint,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		delegationProgram: delegationProgram,
		log:               log,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip and unmarshals the result into out
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: unexpected status %d", method, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, parsed.Error.Message, parsed.Error.Code)
	}
	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("rpc %s: %w", method, err)
		}
	}
	return nil
}

type accountValue struct {
	Data       []string `json:"data"` // [payload, encoding]
	Owner      string   `json:"owner"`
	Lamports   uint64   `json:"lamports"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

func (v *accountValue) toAccountInfo() (*interfaces.AccountInfo, error) {
	info := &interfaces.AccountInfo{
		Lamports:   v.Lamports,
		Executable: v.Executable,
		RentEpoch:  v.RentEpoch,
	}
	if len(v.Data) > 0 {
		raw, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, fmt.Errorf("account data decode: %w", err)
		}
		info.Data = raw
	}
	if v.Owner != "" {
		owner, err := interfaces.AddressFromString(v.Owner)
		if err != nil {
			return nil, err
		}
		info.Owner = owner
	}
	return info, nil
}

// GetAccountInfo fetches one account; a missing account returns (nil, nil)
func (c *Client) GetAccountInfo(ctx context.Context, address interfaces.Address) (*interfaces.AccountInfo, error) {
	var result struct {
		Value *accountValue `json:"value"`
	}
	params := []interface{}{address.String(), map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}
	return result.Value.toAccountInfo()
}

// GetBalance returns the token balance for an owner
func (c *Client) GetBalance(ctx context.Context, owner interfaces.Address) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{owner.String()}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetDelegations enumerates delegation accounts whose delegate field matches
// the given address
func (c *Client) GetDelegations(ctx context.Context, delegate interfaces.Address) ([]interfaces.Delegation, error) {
	var result []struct {
		Account accountValue `json:"account"`
	}
	params := []interface{}{
		c.delegationProgram.String(),
		map[string]interface{}{
			"encoding": "base64",
			"filters": []interface{}{
				map[string]interface{}{
					"memcmp": map[string]interface{}{"offset": 32, "bytes": delegate.String()},
				},
			},
		},
	}
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}

	delegations := make([]interfaces.Delegation, 0, len(result))
	for _, entry := range result {
		info, err := entry.Account.toAccountInfo()
		if err != nil {
			return nil, err
		}
		if len(info.Data) < delegationRecordSize {
			c.log.WithField("size", len(info.Data)).Warn("Skipping undersized delegation account")
			continue
		}
		var d interfaces.Delegation
		copy(d.Delegator[:], info.Data[0:32])
		copy(d.Delegate[:], info.Data[32:64])
		d.Amount = binary.LittleEndian.Uint64(info.Data[64:72])
		delegations = append(delegations, d)
	}
	return delegations, nil
}

// GetLatestBlockhash returns the most recent blockhash for transaction
// assembly
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return "", err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a serialized transaction and returns its signature
func (c *Client) SendTransaction(ctx context.Context, tx *interfaces.Transaction) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(serializeTransaction(tx))
	var signature string
	params := []interface{}{encoded, map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// ConfirmTransaction blocks until the signature is confirmed or the context
// is cancelled
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		var result struct {
			Value []*struct {
				ConfirmationStatus string `json:"confirmationStatus"`
				Err                any    `json:"err"`
			} `json:"value"`
		}
		if err := c.call(ctx, "getSignatureStatuses", []interface{}{[]string{signature}}, &result); err != nil {
			return err
		}
		if len(result.Value) > 0 && result.Value[0] != nil {
			status := result.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", signature, status.Err)
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SimulateTransaction runs the transaction against current state without
// committing it
func (c *Client) SimulateTransaction(ctx context.Context, tx *interfaces.Transaction) (*interfaces.SimulationResult, error) {
	encoded := base64.StdEncoding.EncodeToString(serializeTransaction(tx))
	var result struct {
		Value struct {
			Err           any      `json:"err"`
			Logs          []string `json:"logs"`
			UnitsConsumed uint64   `json:"unitsConsumed"`
		} `json:"value"`
	}
	params := []interface{}{encoded, map[string]interface{}{"encoding": "base64", "sigVerify": false}}
	if err := c.call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}

	sim := &interfaces.SimulationResult{
		Logs:          result.Value.Logs,
		UnitsConsumed: result.Value.UnitsConsumed,
	}
	if result.Value.Err != nil {
		sim.Err = fmt.Sprintf("%v", result.Value.Err)
	}
	return sim, nil
}

// SerializeMessage flattens the signable portion of a transaction (payer,
// blockhash, instructions). Signers sign exactly these bytes. The layout
// mirrors the account buffer codec: little-endian integers, u32 length
// prefixes.
func SerializeMessage(tx *interfaces.Transaction) []byte {
	var buf []byte
	buf = append(buf, tx.Payer[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.RecentBlockhash)))
	buf = append(buf, tx.RecentBlockhash...)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Instructions)))
	for _, instr := range tx.Instructions {
		buf = append(buf, instr.ProgramID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(instr.Accounts)))
		for _, meta := range instr.Accounts {
			buf = append(buf, meta.Pubkey[:]...)
			var flags byte
			if meta.IsSigner {
				flags |= 1
			}
			if meta.IsWritable {
				flags |= 2
			}
			buf = append(buf, flags)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(instr.Data)))
		buf = append(buf, instr.Data...)
	}
	return buf
}

// serializeTransaction appends the signatures to the serialized message
func serializeTransaction(tx *interfaces.Transaction) []byte {
	buf := SerializeMessage(tx)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sig)))
		buf = append(buf, sig...)
	}
	return buf
}
