// Package network implements the gossip protocol between nodes. Every
// exchange is one JSON document per TCP connection: the caller writes a
// message, the server answers (for the query types) and closes.
package network

import (
	"encoding/json"
	"fmt"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// The set of message types understood on the wire.
const (
	TypePing           = "ping"
	TypePong           = "pong"
	TypeGetPeers       = "get_peers"
	TypePeers          = "peers"
	TypeGetBlocks      = "get_blocks"
	TypeBlocks         = "blocks"
	TypeNewBlock       = "new_block"
	TypeNewTransaction = "new_transaction"
)

// Message is implemented by every wire message.
type Message interface {
	messageType() string
}

// PingMsg announces the sender's listen address and asks for a pong.
type PingMsg struct {
	Type      string  `json:"type"`
	Host      string  `json:"host"`
	Port      int     `json:"port"`
	TimeStamp float64 `json:"timestamp"`
}

// PongMsg answers a ping.
type PongMsg struct {
	Type      string  `json:"type"`
	TimeStamp float64 `json:"timestamp"`
}

// GetPeersMsg asks a node for its known peers.
type GetPeersMsg struct {
	Type string `json:"type"`
}

// PeersMsg answers a get_peers with the node's registry.
type PeersMsg struct {
	Type  string      `json:"type"`
	Peers []peer.Peer `json:"peers"`
}

// GetBlocksMsg asks for the chain segment [start_index, end_index]. Negative
// indexes count back from the tip. A message that omits end_index means up
// to the tip, so the decoder seeds it with -1.
type GetBlocksMsg struct {
	Type       string `json:"type"`
	StartIndex int64  `json:"start_index"`
	EndIndex   int64  `json:"end_index"`
}

// BlocksMsg answers a get_blocks.
type BlocksMsg struct {
	Type   string           `json:"type"`
	Blocks []database.Block `json:"blocks"`
}

// NewBlockMsg floods a freshly mined block.
type NewBlockMsg struct {
	Type  string         `json:"type"`
	Block database.Block `json:"block"`
}

// NewTransactionMsg floods a pending transaction.
type NewTransactionMsg struct {
	Type        string      `json:"type"`
	Transaction database.Tx `json:"transaction"`
}

func (PingMsg) messageType() string           { return TypePing }
func (PongMsg) messageType() string           { return TypePong }
func (GetPeersMsg) messageType() string       { return TypeGetPeers }
func (PeersMsg) messageType() string          { return TypePeers }
func (GetBlocksMsg) messageType() string      { return TypeGetBlocks }
func (BlocksMsg) messageType() string         { return TypeBlocks }
func (NewBlockMsg) messageType() string       { return TypeNewBlock }
func (NewTransactionMsg) messageType() string { return TypeNewTransaction }

// DecodeMessage inspects the type field and unmarshals the matching concrete
// message. An unknown or missing type is an error, never a panic.
func DecodeMessage(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg Message
	switch envelope.Type {
	case TypePing:
		msg = &PingMsg{}
	case TypePong:
		msg = &PongMsg{}
	case TypeGetPeers:
		msg = &GetPeersMsg{}
	case TypePeers:
		msg = &PeersMsg{}
	case TypeGetBlocks:
		msg = &GetBlocksMsg{EndIndex: -1}
	case TypeBlocks:
		msg = &BlocksMsg{}
	case TypeNewBlock:
		msg = &NewBlockMsg{}
	case TypeNewTransaction:
		msg = &NewTransactionMsg{}
	default:
		return nil, fmt.Errorf("unknown message type %q", envelope.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
	}

	return msg, nil
}
