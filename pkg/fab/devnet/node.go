/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package devnet is a single replica of the ledger network. It endorses
// proposals by simulating the ledger chaincode, orders transactions into
// blocks, validates and commits them and streams filtered blocks to
// subscribers.
package devnet

import (
	"context"
	"crypto/x509"
	"net"
	"sync"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics/disabled"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/statedb"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

var logger = logging.NewLogger("ledger/devnet")

// Defaults
const (
	DefaultBatchSize    = 1
	DefaultBatchTimeout = 2 * time.Second
	DefaultMaxQueue     = 1000

	genesisTxID = "genesis"
)

// Config configures a replica
type Config struct {
	DataDir     string
	ChannelID   string
	ChaincodeID string
	MSPID       string
	// CACerts are the roots creators and endorsers must chain to.
	// When empty only the MSP ID is checked.
	CACerts []*x509.Certificate
	// BatchSize is the number of transactions that cut a block
	BatchSize int
	// BatchTimeout cuts a block with fewer than BatchSize transactions
	BatchTimeout time.Duration
	// MaxQueue is the number of transactions that may wait for ordering
	MaxQueue int
}

// Listeners are the listeners of the replica's gRPC services. A nil
// listener disables the service.
type Listeners struct {
	Peer    net.Listener
	Orderer net.Listener
	Events  net.Listener
}

// Node is a ledger replica
type Node struct {
	config    Config
	signer    msp.SigningIdentity
	roots     *x509.CertPool
	db        *statedb.DB
	chaincode *ledgercc.Ledger
	metrics   *Metrics
	queue     chan *pendingTx

	notifyMtx sync.Mutex
	notify    chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New opens the replica's state in config.DataDir. An empty ledger is
// seeded by the chaincode's Init in block 0. signer signs endorsements.
func New(config Config, signer msp.SigningIdentity, provider metrics.Provider) (*Node, error) {
	if signer == nil {
		return nil, errors.New("node signing identity is required")
	}
	if config.ChannelID == "" || config.ChaincodeID == "" || config.MSPID == "" {
		return nil, errors.New("channel ID, chaincode ID and MSP ID are required")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = DefaultBatchTimeout
	}
	if config.MaxQueue <= 0 {
		config.MaxQueue = DefaultMaxQueue
	}
	if provider == nil {
		provider = &disabled.Provider{}
	}

	var roots *x509.CertPool
	if len(config.CACerts) > 0 {
		roots = x509.NewCertPool()
		for _, cert := range config.CACerts {
			roots.AddCert(cert)
		}
	}

	db, err := statedb.Open(config.DataDir)
	if err != nil {
		return nil, err
	}

	n := &Node{
		config:    config,
		signer:    signer,
		roots:     roots,
		db:        db,
		chaincode: &ledgercc.Ledger{},
		metrics:   newMetrics(provider),
		queue:     make(chan *pendingTx, config.MaxQueue),
		notify:    make(chan struct{}),
		closed:    make(chan struct{}),
	}

	if err := n.initLedger(); err != nil {
		db.Close() // nolint: errcheck
		return nil, err
	}

	return n, nil
}

func (n *Node) initLedger() error {
	height, err := n.db.Height()
	if err != nil {
		return err
	}
	if height > 0 {
		logger.Infof("Opened ledger [%s] at height %d", n.config.ChannelID, height)
		return nil
	}

	var tx *statedb.Transaction
	err = n.db.View(func(r statedb.Reader) error {
		sim := newSimulator(r, "init", nil)
		resp := n.chaincode.Init(sim)
		if resp.GetStatus() != int32(cb.Status_SUCCESS) {
			return errors.Errorf("chaincode init failed: %s", resp.GetMessage())
		}
		tx = &statedb.Transaction{TxID: genesisTxID, RWSet: sim.rwSet()}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := n.db.CommitBlock(n.config.ChannelID, []*statedb.Transaction{tx}); err != nil {
		return err
	}
	logger.Infof("Created ledger [%s] with chaincode [%s]", n.config.ChannelID, n.config.ChaincodeID)
	return nil
}

// Height returns the number of committed blocks
func (n *Node) Height() (uint64, error) {
	return n.db.Height()
}

// Run cuts and commits blocks until ctx is done
func (n *Node) Run(ctx context.Context) error {
	var batch []*pendingTx
	timer := time.NewTimer(n.config.BatchTimeout)
	timer.Stop()

	cut := func() error {
		timer.Stop()
		pending := batch
		batch = nil
		return n.commit(pending)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-n.closed:
			return nil
		case tx := <-n.queue:
			batch = append(batch, tx)
			if len(batch) >= n.config.BatchSize {
				if err := cut(); err != nil {
					return err
				}
				continue
			}
			if len(batch) == 1 {
				timer.Reset(n.config.BatchTimeout)
			}
		case <-timer.C:
			if len(batch) == 0 {
				continue
			}
			if err := cut(); err != nil {
				return err
			}
		}
	}
}

// Serve registers the replica's services on the given listeners and serves
// them until ctx is done or a server fails
func (n *Node) Serve(ctx context.Context, listeners Listeners) error {
	g, ctx := errgroup.WithContext(ctx)

	var servers []*grpc.Server
	serve := func(name string, lis net.Listener, register func(*grpc.Server)) {
		if lis == nil {
			return
		}
		srv := grpc.NewServer()
		register(srv)
		servers = append(servers, srv)
		g.Go(func() error {
			logger.Infof("Serving %s on %s", name, lis.Addr())
			return errors.Wrapf(srv.Serve(lis), "%s server failed", name)
		})
	}

	serve("endorser", listeners.Peer, func(s *grpc.Server) { pb.RegisterEndorserServer(s, n) })
	serve("orderer", listeners.Orderer, func(s *grpc.Server) { ab.RegisterAtomicBroadcastServer(s, &atomicBroadcast{n: n}) })
	serve("deliver", listeners.Events, func(s *grpc.Server) { pb.RegisterDeliverServer(s, &deliverService{n: n}) })

	g.Go(func() error {
		return n.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		for _, srv := range servers {
			srv.Stop()
		}
		return nil
	})

	err := g.Wait()
	if errors.Cause(err) == grpc.ErrServerStopped {
		return nil
	}
	return err
}

// Close stops the deliver streams and closes the state database
func (n *Node) Close() error {
	var err error
	n.closeOnce.Do(func() {
		close(n.closed)
		err = n.db.Close()
	})
	return err
}

// blockNotifier returns a channel that is closed when the next block is committed
func (n *Node) blockNotifier() <-chan struct{} {
	n.notifyMtx.Lock()
	defer n.notifyMtx.Unlock()
	return n.notify
}

func (n *Node) notifyBlock() {
	n.notifyMtx.Lock()
	defer n.notifyMtx.Unlock()
	close(n.notify)
	n.notify = make(chan struct{})
}
