package network

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// Timeouts for talking to another node. Block downloads get a longer window
// since a tall chain segment can be a large document.
const (
	queryTimeout    = 5 * time.Second
	downloadTimeout = 30 * time.Second
)

// Ping announces our listen address to the target and waits for the pong.
// The pong timestamp is returned so the caller can record liveness.
func Ping(target peer.Peer, self peer.Peer) (float64, error) {
	req := PingMsg{
		Type:      TypePing,
		Host:      self.Host,
		Port:      self.Port,
		TimeStamp: database.Now(),
	}

	reply, err := roundTrip(target, queryTimeout, req)
	if err != nil {
		return 0, err
	}

	pong, ok := reply.(*PongMsg)
	if !ok {
		return 0, fmt.Errorf("peer %s: expected pong, got %T", target, reply)
	}

	return pong.TimeStamp, nil
}

// GetPeers asks the target node for its known peers.
func GetPeers(target peer.Peer) ([]peer.Peer, error) {
	reply, err := roundTrip(target, queryTimeout, GetPeersMsg{Type: TypeGetPeers})
	if err != nil {
		return nil, err
	}

	peers, ok := reply.(*PeersMsg)
	if !ok {
		return nil, fmt.Errorf("peer %s: expected peers, got %T", target, reply)
	}

	return peers.Peers, nil
}

// GetBlocks downloads the chain segment [start, end] from the target.
// Negative indexes count back from the target's tip.
func GetBlocks(target peer.Peer, start int64, end int64) ([]database.Block, error) {
	req := GetBlocksMsg{
		Type:       TypeGetBlocks,
		StartIndex: start,
		EndIndex:   end,
	}

	reply, err := roundTrip(target, downloadTimeout, req)
	if err != nil {
		return nil, err
	}

	blocks, ok := reply.(*BlocksMsg)
	if !ok {
		return nil, fmt.Errorf("peer %s: expected blocks, got %T", target, reply)
	}

	return blocks.Blocks, nil
}

// ProbeHeight asks the target for its latest block and returns its index.
func ProbeHeight(target peer.Peer) (uint64, error) {
	blocks, err := GetBlocks(target, -1, -1)
	if err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, fmt.Errorf("peer %s: empty chain", target)
	}

	return blocks[len(blocks)-1].Index, nil
}

// SendBlock floods a block to the target. No reply is expected.
func SendBlock(target peer.Peer, block database.Block) error {
	return send(target, NewBlockMsg{Type: TypeNewBlock, Block: block})
}

// SendTx floods a transaction to the target. No reply is expected.
func SendTx(target peer.Peer, tx database.Tx) error {
	return send(target, NewTransactionMsg{Type: TypeNewTransaction, Transaction: tx})
}

// =============================================================================

// send writes one message to the target and closes the connection.
func send(target peer.Peer, msg Message) error {
	conn, err := net.DialTimeout("tcp", target.String(), queryTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(queryTimeout))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.messageType(), target, err)
	}

	return nil
}

// roundTrip writes one message and decodes the single reply the server sends
// before it closes the connection.
func roundTrip(target peer.Peer, timeout time.Duration, msg Message) (Message, error) {
	conn, err := net.DialTimeout("tcp", target.String(), timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return nil, fmt.Errorf("send %s to %s: %w", msg.messageType(), target, err)
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("read reply from %s: %w", target, err)
	}

	reply, err := DecodeMessage(data)
	if err != nil {
		return nil, fmt.Errorf("reply from %s: %w", target, err)
	}

	return reply, nil
}
