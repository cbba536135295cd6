package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/qbitcoin/qbitcoin/app/services/node/handlers"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/network"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/state"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/worker"
	"github.com/qbitcoin/qbitcoin/foundation/events"
	"github.com/qbitcoin/qbitcoin/foundation/logger"
	"github.com/qbitcoin/qbitcoin/foundation/nameservice"
	"github.com/qbitcoin/qbitcoin/foundation/wallet"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Node struct {
			Host           string   `conf:"default:0.0.0.0"`
			Port           int      `conf:"default:9333"`
			DataDir        string   `conf:"default:zblock/data"`
			GenesisFile    string   `conf:"default:zblock/genesis.json"`
			WalletFile     string   `conf:"default:zblock/wallets/miner.json"`
			SelectStrategy string   `conf:"default:fee"`
			KnownPeers     []string `conf:"default:"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/wallets/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "QBITCOIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Chain Parameters

	gen, err := genesis.Load(cfg.Node.GenesisFile)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}
	log.Infow("startup", "status", "genesis loaded", "chain", gen.ChainName, "difficulty", gen.Difficulty)

	// =========================================================================
	// Miner Wallet

	// The node needs a key pair so mined coinbases credit this operator. A
	// fresh install gets a wallet generated on the spot.
	miner, err := wallet.LoadOrGenerate(cfg.Node.WalletFile)
	if err != nil {
		return fmt.Errorf("unable to load miner wallet: %w", err)
	}
	log.Infow("startup", "status", "miner wallet ready", "address", miner.Address())

	// =========================================================================
	// Name Service Support

	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Peer Registry

	// The registry starts from the saved peers file merged with the seed
	// peers from the configuration.
	peerSet := peer.NewPeerSet(gen.MaxPeers)
	if err := peerSet.Load(filepath.Join(cfg.Node.DataDir, "peers.json")); err != nil {
		return fmt.Errorf("unable to load peers file: %w", err)
	}
	for _, host := range cfg.Node.KnownPeers {
		p, err := parsePeer(host)
		if err != nil {
			return fmt.Errorf("known peer %q: %w", host, err)
		}
		peerSet.Add(p)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow
	// the application to log. These raw messages are also sent to any
	// websocket client connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		BeneficiaryID:  miner.Address(),
		Host:           cfg.Node.Host,
		Port:           cfg.Node.Port,
		DataDir:        cfg.Node.DataDir,
		SelectStrategy: cfg.Node.SelectStrategy,
		Genesis:        gen,
		KnownPeers:     peerSet,
		EvHandler:      ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// =========================================================================
	// Start Gossip Service

	// Listen for the other nodes before the worker starts syncing, so peers
	// that contact us first are not turned away.
	gossip := network.NewServer(network.ServerConfig{
		Host:      cfg.Node.Host,
		Port:      cfg.Node.Port,
		Ledger:    st,
		EvHandler: ev,
	})
	if err := gossip.Start(); err != nil {
		return fmt.Errorf("unable to start gossip service: %w", err)
	}
	defer gossip.Stop()

	// The worker package implements the different workflows such as mining,
	// peer liveness, and chain sync. The worker will register itself with
	// the state.
	worker.Run(st, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(build, log)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Make a channel to listen for an interrupt or terminate signal from the
	// OS. Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NS:       ns,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// parsePeer converts a host:port string from the configuration into a peer.
func parsePeer(hostPort string) (peer.Peer, error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return peer.Peer{}, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return peer.Peer{}, fmt.Errorf("invalid port %q", portStr)
	}

	return peer.New(host, port), nil
}
