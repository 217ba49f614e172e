/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
)

var (
	proposalsReceived = metrics.CounterOpts{
		Namespace:  "devnet",
		Subsystem:  "endorser",
		Name:       "proposals_received",
		Help:       "The number of proposals received.",
		LabelNames: []string{"status"},
	}
	proposalDuration = metrics.HistogramOpts{
		Namespace: "devnet",
		Subsystem: "endorser",
		Name:      "proposal_duration",
		Help:      "The time to complete a proposal.",
	}
	broadcastsReceived = metrics.CounterOpts{
		Namespace:  "devnet",
		Subsystem:  "orderer",
		Name:       "broadcasts_received",
		Help:       "The number of envelopes received.",
		LabelNames: []string{"status"},
	}
	queueDepth = metrics.GaugeOpts{
		Namespace: "devnet",
		Subsystem: "orderer",
		Name:      "queue_depth",
		Help:      "The number of transactions waiting to be cut into a block.",
	}
	blocksCommitted = metrics.CounterOpts{
		Namespace: "devnet",
		Subsystem: "committer",
		Name:      "blocks_committed",
		Help:      "The number of blocks committed.",
	}
	transactionsCommitted = metrics.CounterOpts{
		Namespace:  "devnet",
		Subsystem:  "committer",
		Name:       "transactions_committed",
		Help:       "The number of transactions committed by validation code.",
		LabelNames: []string{"validation_code"},
	}
	blockHeight = metrics.GaugeOpts{
		Namespace: "devnet",
		Subsystem: "committer",
		Name:      "block_height",
		Help:      "The height of the ledger.",
	}
)

// Metrics are the replica's meters
type Metrics struct {
	ProposalsReceived     metrics.Counter
	ProposalDuration      metrics.Histogram
	BroadcastsReceived    metrics.Counter
	QueueDepth            metrics.Gauge
	BlocksCommitted       metrics.Counter
	TransactionsCommitted metrics.Counter
	BlockHeight           metrics.Gauge
}

func newMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		ProposalsReceived:     p.NewCounter(proposalsReceived),
		ProposalDuration:      p.NewHistogram(proposalDuration),
		BroadcastsReceived:    p.NewCounter(broadcastsReceived),
		QueueDepth:            p.NewGauge(queueDepth),
		BlocksCommitted:       p.NewCounter(blocksCommitted),
		TransactionsCommitted: p.NewCounter(transactionsCommitted),
		BlockHeight:           p.NewGauge(blockHeight),
	}
}
