// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/qbitcoin/qbitcoin/business/web/errs"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/state"
	"github.com/qbitcoin/qbitcoin/foundation/events"
	"github.com/qbitcoin/qbitcoin/foundation/nameservice"
	"github.com/qbitcoin/qbitcoin/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the current chain and peer state of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.LatestBlock()

	knownPeers := h.State.KnownPeers()
	peers := make([]string, len(knownPeers))
	for i, p := range knownPeers {
		peers[i] = p.String()
	}

	status := Status{
		ChainName:    h.State.Genesis().ChainName,
		Height:       latest.Index,
		LatestHash:   latest.Hash,
		Difficulty:   h.State.Difficulty(),
		MempoolCount: h.State.MempoolCount(),
		KnownPeers:   peers,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByRange returns the blocks in the specified range. The from and to
// values accept "latest" as well as negative indexes counting back from the
// tip.
func (h Handlers) BlocksByRange(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseIndex(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := parseIndex(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	dbBlocks := h.State.RetrieveBlocks(from, to)

	blocks := make([]Block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = h.toBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Balances returns the spendable funds for the specified account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	balances := Balances{
		LatestBlock: h.State.LatestBlock().Hash,
		Uncommitted: h.State.MempoolCount(),
		Balances: []Balance{
			{
				Account: account,
				Name:    h.NS.Lookup(account),
				Balance: h.State.Balance(account),
			},
		},
	}

	return web.Respond(ctx, w, balances, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in selection order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.Mempool()

	trans := make([]Tx, len(pool))
	for i, tx := range pool {
		trans[i] = h.toTx(tx)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// ValidateChain rescans the whole chain and reports the first defect found.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid  bool   `json:"valid"`
		Height uint64 `json:"height"`
		Error  string `json:"error,omitempty"`
	}{
		Valid:  true,
		Height: h.State.Height(),
	}

	if err := h.State.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitWalletTransaction adds a new signed transaction to the mempool and
// floods it to the known peers.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var submit SubmitTx
	if err := web.Decode(r, &submit); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	tx := database.Tx{
		TxID:      submit.TxID,
		Sender:    submit.Sender,
		Recipient: submit.Recipient,
		Amount:    submit.Amount,
		Fee:       submit.Fee,
		TimeStamp: submit.TimeStamp,
		Signature: submit.Signature,
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx)
	if err := h.State.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		TxID   string `json:"txid"`
	}{
		Status: "transaction added to mempool",
		TxID:   tx.TxID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func (h Handlers) toTx(tx database.Tx) Tx {
	return Tx{
		TxID:      tx.TxID,
		From:      tx.Sender,
		FromName:  h.NS.Lookup(tx.Sender),
		To:        tx.Recipient,
		ToName:    h.NS.Lookup(tx.Recipient),
		Amount:    tx.Amount,
		Fee:       tx.Fee,
		TimeStamp: tx.TimeStamp,
		Signature: tx.Signature,
	}
}

func (h Handlers) toBlock(blk database.Block) Block {
	trans := make([]Tx, len(blk.Transactions))
	for i, tx := range blk.Transactions {
		trans[i] = h.toTx(tx)
	}

	return Block{
		Index:        blk.Index,
		PrevHash:     blk.PrevHash,
		TimeStamp:    blk.TimeStamp,
		Nonce:        blk.Nonce,
		Hash:         blk.Hash,
		Transactions: trans,
	}
}

// parseIndex converts a route parameter into a chain index, accepting
// "latest" as an alias for the tip.
func parseIndex(param string) (int64, error) {
	if param == "latest" {
		return -1, nil
	}

	idx, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", param)
	}

	return idx, nil
}
