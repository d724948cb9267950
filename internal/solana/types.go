package solana

import (
	"encoding/json"
	"fmt"

	"solana-pool-monitor/internal/domain"
)

// WebSocket message types for transactionSubscribe.

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsTransactionFilter struct {
	Vote            bool     `json:"vote"`
	Failed          bool     `json:"failed"`
	AccountInclude  []string `json:"accountInclude"`
	AccountExclude  []string `json:"accountExclude"`
	AccountRequired []string `json:"accountRequired"`
}

type wsTransactionOptions struct {
	Commitment                     string `json:"commitment"`
	Encoding                       string `json:"encoding"`
	TransactionDetails             string `json:"transactionDetails"`
	ShowRewards                    bool   `json:"showRewards"`
	MaxSupportedTransactionVersion int    `json:"maxSupportedTransactionVersion"`
}

// wsEnvelope is decoded first to route a message.
type wsEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   *wsError        `json:"error"`
	Params  json.RawMessage `json:"params"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type wsNotificationParams struct {
	Subscription int64                    `json:"subscription"`
	Result       wsTransactionNotification `json:"result"`
}

type wsTransactionNotification struct {
	Signature   string          `json:"signature"`
	Slot        uint64          `json:"slot"`
	Transaction wsTransactionTx `json:"transaction"`
}

type wsTransactionTx struct {
	Transaction *wsTransactionBody `json:"transaction"`
	Meta        *wsTransactionMeta `json:"meta"`
}

type wsTransactionBody struct {
	Signatures []string   `json:"signatures"`
	Message    *wsMessage `json:"message"`
}

type wsMessage struct {
	AccountKeys  []string        `json:"accountKeys"`
	Instructions []wsInstruction `json:"instructions"`
}

type wsInstruction struct {
	ProgramIDIndex int `json:"programIdIndex"`
}

type wsTransactionMeta struct {
	Err             interface{}        `json:"err"`
	LoadedAddresses *wsLoadedAddresses `json:"loadedAddresses"`
}

type wsLoadedAddresses struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

// toRecord converts a notification into a TransactionRecord.
// Account keys are the static keys followed by lookup-table writable and
// readonly addresses, matching the index space used by instructions.
func (n *wsTransactionNotification) toRecord() (*domain.TransactionRecord, error) {
	body := n.Transaction.Transaction
	if body == nil || body.Message == nil {
		return nil, fmt.Errorf("notification %s: missing transaction message", n.Signature)
	}

	sigStr := n.Signature
	if sigStr == "" && len(body.Signatures) > 0 {
		sigStr = body.Signatures[0]
	}
	sig, err := domain.ParseSignature(sigStr)
	if err != nil {
		return nil, err
	}

	keys := body.Message.AccountKeys
	if meta := n.Transaction.Meta; meta != nil && meta.LoadedAddresses != nil {
		keys = append(append(append([]string{}, keys...), meta.LoadedAddresses.Writable...), meta.LoadedAddresses.Readonly...)
	}

	accountKeys := make([]domain.PublicKey, len(keys))
	for i, k := range keys {
		pk, err := domain.ParsePublicKey(k)
		if err != nil {
			return nil, fmt.Errorf("account key %d: %w", i, err)
		}
		accountKeys[i] = pk
	}

	instructions := make([]domain.SubOperation, len(body.Message.Instructions))
	for i, ix := range body.Message.Instructions {
		instructions[i] = domain.SubOperation{ProgramIDIndex: ix.ProgramIDIndex}
	}

	rec := &domain.TransactionRecord{
		Signature:    sig,
		Slot:         n.Slot,
		AccountKeys:  accountKeys,
		Instructions: instructions,
	}
	if n.Transaction.Meta != nil {
		rec.Err = n.Transaction.Meta.Err
	}
	return rec, nil
}
