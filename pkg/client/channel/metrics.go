/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
)

var (
	queriesReceived = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "queries_received",
		Help:       "The number of channel client queries received.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	queriesFailed = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "queries_failed",
		Help:       "The number of channel client queries that failed.",
		LabelNames: []string{"chaincode", "fcn", "fail"},
	}
	queryTimeouts = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "query_timeouts",
		Help:       "The number of channel client queries that timed out.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	queryDuration = metrics.HistogramOpts{
		Namespace:  "channel",
		Name:       "query_duration",
		Help:       "The time to complete a channel client query.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	executionsReceived = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "executions_received",
		Help:       "The number of channel client executions received.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	executionsFailed = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "executions_failed",
		Help:       "The number of channel client executions that failed.",
		LabelNames: []string{"chaincode", "fcn", "fail"},
	}
	executionTimeouts = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "execution_timeouts",
		Help:       "The number of channel client executions whose commit status is unknown.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	executionDuration = metrics.HistogramOpts{
		Namespace:  "channel",
		Name:       "execution_duration",
		Help:       "The time to complete a channel client execution.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	executionOutcomes = metrics.CounterOpts{
		Namespace:  "channel",
		Name:       "execution_outcomes",
		Help:       "The number of executions by terminal outcome.",
		LabelNames: []string{"chaincode", "fcn", "outcome"},
	}
)

// Metrics are the channel client's meters
type Metrics struct {
	QueriesReceived    metrics.Counter
	QueriesFailed      metrics.Counter
	QueryTimeouts      metrics.Counter
	QueryDuration      metrics.Histogram
	ExecutionsReceived metrics.Counter
	ExecutionsFailed   metrics.Counter
	ExecutionTimeouts  metrics.Counter
	ExecutionDuration  metrics.Histogram
	ExecutionOutcomes  metrics.Counter
}

// NewMetrics creates the channel client's meters on p
func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		QueriesReceived:    p.NewCounter(queriesReceived),
		QueriesFailed:      p.NewCounter(queriesFailed),
		QueryTimeouts:      p.NewCounter(queryTimeouts),
		QueryDuration:      p.NewHistogram(queryDuration),
		ExecutionsReceived: p.NewCounter(executionsReceived),
		ExecutionsFailed:   p.NewCounter(executionsFailed),
		ExecutionTimeouts:  p.NewCounter(executionTimeouts),
		ExecutionDuration:  p.NewHistogram(executionDuration),
		ExecutionOutcomes:  p.NewCounter(executionOutcomes),
	}
}
