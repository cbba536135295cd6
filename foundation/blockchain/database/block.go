package database

import (
	"context"
	"strconv"
	"strings"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together. The first
// transaction is always the coinbase paying the miner.
type Block struct {
	Index        uint64  `json:"index"`
	PrevHash     string  `json:"previous_hash"`
	TimeStamp    float64 `json:"timestamp"`
	Transactions []Tx    `json:"transactions"`
	Nonce        uint64  `json:"nonce"`
	Hash         string  `json:"hash"`
}

// NewBlock constructs a block at the specified height linked to the previous
// hash. The block is unsealed: the nonce is zero and the hash is computed
// over that zero nonce until mining finds a solution.
func NewBlock(index uint64, prevHash string, timestamp float64, trans []Tx) Block {
	b := Block{
		Index:        index,
		PrevHash:     prevHash,
		TimeStamp:    timestamp,
		Transactions: trans,
	}
	b.Hash = b.ComputeHash()

	return b
}

// GenesisBlock derives the fixed first block of the chain from the genesis
// file. Every node with the same genesis file computes the identical block.
func GenesisBlock(g genesis.Genesis) Block {
	at := float64(g.Date.Unix())
	coinbase := NewTxAt(signature.ZeroAccount, g.GenesisRecipient, g.BlockReward, 0, at)

	return NewBlock(0, signature.ZeroHash, at, []Tx{coinbase})
}

// =============================================================================

// headerData renders the canonical header view with the supplied nonce:
// height, previous hash, timestamp, the content hash of the serialized
// transaction list, and the nonce.
func (b Block) headerData(nonce uint64) []byte {
	return marshalOrdered(map[string]any{
		"index":             b.Index,
		"previous_hash":     b.PrevHash,
		"timestamp":         b.TimeStamp,
		"transactions_root": b.transactionsRoot(),
		"nonce":             nonce,
	})
}

// transactionsRoot hashes the canonical serialization of the ordered
// transaction list.
func (b Block) transactionsRoot() string {
	list := make([]map[string]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		list[i] = map[string]any{
			"txid":      tx.TxID,
			"sender":    tx.Sender,
			"recipient": tx.Recipient,
			"amount":    tx.Amount,
			"fee":       tx.Fee,
			"timestamp": tx.TimeStamp,
			"signature": tx.Signature,
		}
	}

	return signature.Hash(marshalOrdered(list))
}

// ComputeHash returns the content hash of the header view with the block's
// current nonce. The stored hash must always equal this recomputation or
// the chain is invalid from this block forward.
func (b Block) ComputeHash() string {
	return signature.Hash(b.headerData(b.Nonce))
}

// powData is the input to the memory-hard digest for a candidate nonce. The
// header is rendered with a zero nonce and the candidate is appended as
// text, so the header bytes stay fixed across the whole search.
func (b Block) powData(nonce uint64) []byte {
	data := b.headerData(0)
	return append(data, strconv.FormatUint(nonce, 10)...)
}

// Mine performs the proof of work search: starting at nonce zero and moving
// sequentially, run the memory-hard digest over the header plus nonce until
// the digest carries enough leading zero hex characters. The search is
// deterministic, so independent miners converge on the same winning nonce
// for the same header. The context is polled every attempt for cancellation.
func (b *Block) Mine(ctx context.Context, difficulty int, pow signature.PowParams) (uint64, error) {
	var attempts uint64

	for nonce := uint64(0); ; nonce++ {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}
		attempts++

		digest := signature.PowDigest(b.powData(nonce), pow)
		if !isDigestSolved(difficulty, digest) {
			continue
		}

		b.Nonce = nonce
		b.Hash = b.ComputeHash()

		return attempts, nil
	}
}

// VerifyPow repeats both digest stages for the block's stored nonce and
// reports whether the result meets the difficulty. Verification costs one
// digest regardless of how long the original search ran.
func (b Block) VerifyPow(difficulty int, pow signature.PowParams) bool {
	digest := signature.PowDigest(b.powData(b.Nonce), pow)
	return isDigestSolved(difficulty, digest)
}

// isDigestSolved checks the digest has the required count of leading
// zero hex characters.
func isDigestSolved(difficulty int, digest string) bool {
	if difficulty < 1 {
		difficulty = 1
	}
	if len(digest) < difficulty {
		return false
	}

	return strings.HasPrefix(digest, strings.Repeat("0", difficulty))
}
