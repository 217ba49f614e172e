/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	metricsprom "github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics/prometheus"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/ca"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

type startConfig struct {
	DataDir       string
	PeerListen    string
	OrdererListen string
	EventsListen  string
	CAListen      string
	ChannelID     string
	ChaincodeID   string
	MSPID         string
	CAName        string
	PeerName      string
	BatchSize     int
	BatchTimeout  time.Duration
	MaxQueue      int
}

func newStartCmd() *cobra.Command {
	c := &startConfig{}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Starts the replica and its certificate authority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVar(&c.DataDir, "data-dir", "ledgerdata", "directory of the state database and the CA key pair")
	cmd.Flags().StringVar(&c.PeerListen, "peer-listen", ":7051", "address of the endorser service")
	cmd.Flags().StringVar(&c.OrdererListen, "orderer-listen", ":7050", "address of the ordering service")
	cmd.Flags().StringVar(&c.EventsListen, "events-listen", ":7053", "address of the deliver service")
	cmd.Flags().StringVar(&c.CAListen, "ca-listen", ":7054", "address of the certificate authority and /metrics")
	cmd.Flags().StringVar(&c.ChannelID, "channel", config.DefaultChannelID, "channel ID")
	cmd.Flags().StringVar(&c.ChaincodeID, "chaincode", config.DefaultChaincodeID, "chaincode ID")
	cmd.Flags().StringVar(&c.MSPID, "mspid", config.DefaultMSPID, "MSP ID of the organization")
	cmd.Flags().StringVar(&c.CAName, "ca-name", config.DefaultCAName, "name of the certificate authority")
	cmd.Flags().StringVar(&c.PeerName, "peer-name", config.DefaultPeerName, "enrollment ID of the replica's signing identity")
	cmd.Flags().IntVar(&c.BatchSize, "batch-size", devnet.DefaultBatchSize, "number of transactions that cut a block")
	cmd.Flags().DurationVar(&c.BatchTimeout, "batch-timeout", devnet.DefaultBatchTimeout, "time after which a partial block is cut")
	cmd.Flags().IntVar(&c.MaxQueue, "max-queue", devnet.DefaultMaxQueue, "number of transactions that may wait for ordering")
	return cmd
}

func start(ctx context.Context, c *startConfig) error {
	authority, err := ca.LoadOrCreate(filepath.Join(c.DataDir, "ca"), c.CAName)
	if err != nil {
		return err
	}
	certPEM, keyPEM, err := authority.Issue(c.PeerName)
	if err != nil {
		return errors.WithMessage(err, "issuing the replica identity failed")
	}
	signer, err := mspimpl.NewUser(c.MSPID, c.PeerName, certPEM, keyPEM)
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	node, err := devnet.New(devnet.Config{
		DataDir:      filepath.Join(c.DataDir, "ledger"),
		ChannelID:    c.ChannelID,
		ChaincodeID:  c.ChaincodeID,
		MSPID:        c.MSPID,
		CACerts:      []*x509.Certificate{authority.Certificate()},
		BatchSize:    c.BatchSize,
		BatchTimeout: c.BatchTimeout,
		MaxQueue:     c.MaxQueue,
	}, signer, metricsprom.NewProvider(registry))
	if err != nil {
		return err
	}
	defer func() {
		if err := node.Close(); err != nil {
			logger.Warnf("closing the replica failed: %s", err)
		}
	}()

	listeners, err := listen(c)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(authority.Handler())
	caServer := http.Server{
		Addr:              c.CAListen,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return node.Serve(ctx, listeners)
	})
	g.Go(func() error {
		logger.Infof("Serving CA [%s] on %s", c.CAName, c.CAListen)
		return httpsrv.Run(ctx, caServer, httpsrv.ShutdownTimeout(5*time.Second))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func listen(c *startConfig) (devnet.Listeners, error) {
	var listeners devnet.Listeners
	var opened []net.Listener
	for _, l := range []struct {
		addr string
		lis  *net.Listener
	}{
		{c.PeerListen, &listeners.Peer},
		{c.OrdererListen, &listeners.Orderer},
		{c.EventsListen, &listeners.Events},
	} {
		lis, err := net.Listen("tcp", l.addr)
		if err != nil {
			for _, o := range opened {
				o.Close() // nolint: errcheck
			}
			return devnet.Listeners{}, errors.Wrapf(err, "listening on %s failed", l.addr)
		}
		opened = append(opened, lis)
		*l.lis = lis
	}
	return listeners, nil
}
