package state

import (
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/network"
)

// NetSendBlockToPeers floods a freshly mined block to every known peer. Sends
// are best effort; a peer that cannot be reached is just logged.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: block[%d] to %d peers", block.Index, s.knownPeers.Count())

	for _, p := range s.knownPeers.Copy() {
		if err := network.SendBlock(p, block); err != nil {
			s.evHandler("state: NetSendBlockToPeers: WARNING: peer[%s]: %s", p, err)
		}
	}
}

// NetSendTxToPeers floods an admitted transaction to every known peer.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: tx[%s] to %d peers", tx.TxID, s.knownPeers.Count())

	for _, p := range s.knownPeers.Copy() {
		if err := network.SendTx(p, tx); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: peer[%s]: %s", p, err)
		}
	}
}
