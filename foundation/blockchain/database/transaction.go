package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties. The sender and
// recipient are hex encoded Dilithium public keys, with the zero account
// acting as the sender of coinbase transactions.
type Tx struct {
	TxID      string  `json:"txid"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Fee       float64 `json:"fee"`
	TimeStamp float64 `json:"timestamp"`
	Signature string  `json:"signature"`
}

// NewTx constructs a new unsigned transaction stamped with the current time.
func NewTx(sender string, recipient string, amount float64, fee float64) Tx {
	return NewTxAt(sender, recipient, amount, fee, Now())
}

// NewTxAt constructs a new unsigned transaction with an explicit creation
// time. The genesis coinbase needs a fixed timestamp so every node derives
// the identical chain root.
func NewTxAt(sender string, recipient string, amount float64, fee float64, timestamp float64) Tx {
	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Fee:       fee,
		TimeStamp: timestamp,
	}
	tx.TxID = tx.computeID()

	return tx
}

// NewCoinbaseTx constructs the reward transaction a miner places first in a
// mined block. A coinbase has no sender and carries no fee.
func NewCoinbaseTx(recipient string, reward float64) Tx {
	return NewTx(signature.ZeroAccount, recipient, reward, 0)
}

// computeID hashes the five content fields of the transaction. The id is
// assigned once at construction and is stable regardless of later signing.
func (tx Tx) computeID() string {
	return signature.Hash(marshalOrdered(map[string]any{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
		"fee":       tx.Fee,
		"timestamp": tx.TimeStamp,
	}))
}

// signingPayload is the canonical byte view covered by the signature.
func (tx Tx) signingPayload() []byte {
	return marshalOrdered(map[string]any{
		"txid":      tx.TxID,
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
		"fee":       tx.Fee,
		"timestamp": tx.TimeStamp,
	})
}

// Sign signs the transaction with the hex encoded secret key. Signing an
// already signed transaction is a no-op so signatures can never be replaced.
func (tx *Tx) Sign(secretHex string) error {
	if tx.Signature != "" {
		return nil
	}

	sig, err := signature.Sign(tx.signingPayload(), secretHex)
	if err != nil {
		return err
	}
	tx.Signature = sig

	return nil
}

// Verify reports whether the transaction carries a valid signature from the
// sender. An unsigned transaction never verifies. Coinbase transactions are
// exempt from this check at the call sites that validate blocks.
func (tx Tx) Verify() bool {
	if tx.Signature == "" {
		return false
	}

	return signature.Verify(tx.signingPayload(), tx.Signature, tx.Sender)
}

// IsCoinbase reports whether this transaction mints new coin.
func (tx Tx) IsCoinbase() bool {
	return tx.Sender == signature.ZeroAccount
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%.8s:%.8s->%.8s", tx.TxID, tx.Sender, tx.Recipient)
}

// =============================================================================

// Now returns the current wall clock as float seconds, matching the wire
// representation of every timestamp on the chain.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// marshalOrdered serializes the value with deterministic key ordering.
// Hashing and signing both depend on this canonical form, so it must never
// change. Go's json package sorts map keys and emits compact output.
func marshalOrdered(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
