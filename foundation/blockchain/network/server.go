package network

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// readTimeout bounds how long a connected peer may take to deliver its one
// message.
const readTimeout = 5 * time.Second

// EventHandler defines a function that is called when events occur while
// serving peers.
type EventHandler func(v string, args ...any)

// Ledger represents the behavior the server needs from the blockchain state.
type Ledger interface {
	AcceptPeerBlock(block database.Block) error
	UpsertMempool(tx database.Tx) error
	RetrieveBlocks(start int64, end int64) []database.Block
	AddKnownPeer(p peer.Peer) bool
	KnownPeers() []peer.Peer
}

// ServerConfig represents the configuration required to run the gossip
// listener.
type ServerConfig struct {
	Host      string
	Port      int
	Ledger    Ledger
	EvHandler EventHandler
}

// Server accepts gossip connections from other nodes. Each connection carries
// one message; queries are answered on the same connection, floods are
// applied and passed on.
type Server struct {
	host     string
	port     int
	ledger   Ledger
	ev       EventHandler
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer constructs a gossip server ready to start.
func NewServer(cfg ServerConfig) *Server {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Server{
		host:   cfg.Host,
		port:   cfg.Port,
		ledger: cfg.Ledger,
		ev:     ev,
	}
}

// Start binds the listen socket and begins accepting peers.
func (s *Server) Start() error {
	if s.listener != nil {
		return fmt.Errorf("server already started on %s", s.listener.Addr())
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("bind gossip listener: %w", err)
	}
	s.listener = listener

	s.ev("network: server: listening on %s", listener.Addr())

	s.wg.Add(1)
	go s.accept()

	return nil
}

// Stop closes the listener and waits for in flight connections to finish.
func (s *Server) Stop() {
	if s.listener == nil {
		return
	}

	s.listener.Close()
	s.wg.Wait()

	s.ev("network: server: stopped")
}

// Addr returns the bound listen address. Useful when port 0 was requested.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// =============================================================================

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// handle reads the single message a peer sends, applies it, and answers the
// query types. The connection is closed when this returns.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		s.ev("network: server: %s: read: %s", conn.RemoteAddr(), err)
		return
	}

	msg, err := DecodeMessage(raw)
	if err != nil {
		s.ev("network: server: %s: %s", conn.RemoteAddr(), err)
		return
	}

	switch msg := msg.(type) {
	case *PingMsg:
		s.ledger.AddKnownPeer(peer.New(msg.Host, msg.Port))
		s.respond(conn, PongMsg{Type: TypePong, TimeStamp: database.Now()})

	case *GetPeersMsg:
		s.respond(conn, PeersMsg{Type: TypePeers, Peers: s.ledger.KnownPeers()})

	case *GetBlocksMsg:
		blocks := s.ledger.RetrieveBlocks(msg.StartIndex, msg.EndIndex)
		s.respond(conn, BlocksMsg{Type: TypeBlocks, Blocks: blocks})

	case *NewBlockMsg:
		if err := s.ledger.AcceptPeerBlock(msg.Block); err != nil {
			s.ev("network: server: block[%d] rejected: %s", msg.Block.Index, err)
			return
		}
		s.flood(func(p peer.Peer) error { return SendBlock(p, msg.Block) })

	case *NewTransactionMsg:
		if err := s.ledger.UpsertMempool(msg.Transaction); err != nil {
			s.ev("network: server: tx[%s] rejected: %s", msg.Transaction.TxID, err)
			return
		}
		s.flood(func(p peer.Peer) error { return SendTx(p, msg.Transaction) })

	default:
		// Reply types arriving unsolicited are dropped.
		s.ev("network: server: %s: unsolicited %s", conn.RemoteAddr(), msg.messageType())
	}
}

func (s *Server) respond(conn net.Conn, msg Message) {
	conn.SetWriteDeadline(time.Now().Add(readTimeout))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		s.ev("network: server: %s: write %s: %s", conn.RemoteAddr(), msg.messageType(), err)
	}
}

// flood passes an accepted block or transaction on to every known peer. The
// duplicate checks on the receiving side stop the echo.
func (s *Server) flood(send func(p peer.Peer) error) {
	for _, p := range s.ledger.KnownPeers() {
		if err := send(p); err != nil {
			s.ev("network: server: flood: peer[%s]: %s", p, err)
		}
	}
}
