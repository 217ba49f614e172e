/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"fmt"
	"time"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
)

// meters groups the instruments of one kind of request
type meters struct {
	received metrics.Counter
	failed   metrics.Counter
	timeouts metrics.Counter
	duration metrics.Histogram
	outcomes metrics.Counter
}

func (cc *Client) queryMeters() meters {
	m := cc.metrics
	return meters{received: m.QueriesReceived, failed: m.QueriesFailed, timeouts: m.QueryTimeouts, duration: m.QueryDuration}
}

func (cc *Client) executeMeters() meters {
	m := cc.metrics
	return meters{
		received: m.ExecutionsReceived,
		failed:   m.ExecutionsFailed,
		timeouts: m.ExecutionTimeouts,
		duration: m.ExecutionDuration,
		outcomes: m.ExecutionOutcomes,
	}
}

func callQuery(cc *Client, request Request, options ...RequestOption) (Response, error) {
	return cc.instrumented(cc.queryMeters(), invoke.NewQueryHandler(), false, request, options...)
}

func callExecute(cc *Client, request Request, options ...RequestOption) (Response, error) {
	return cc.instrumented(cc.executeMeters(), invoke.NewExecuteHandler(), true, request, options...)
}

// instrumented runs handler and records the request on m
func (cc *Client) instrumented(m meters, handler invoke.Handler, submit bool, request Request, options ...RequestOption) (Response, error) {
	labels := []string{"chaincode", request.ChaincodeID, "fcn", request.Fcn}
	m.received.With(labels...).Add(1)

	start := time.Now()
	resp, err := cc.run(handler, submit, request, options...)

	if m.outcomes != nil && resp.Outcome != "" {
		m.outcomes.With(append(labels, "outcome", string(resp.Outcome))...).Add(1)
	}
	if err == nil {
		m.duration.With(labels...).Observe(time.Since(start).Seconds())
		return resp, nil
	}

	s, ok := status.FromError(err)
	switch {
	case !ok:
		m.failed.With(append(labels, "fail", "Error - Generic")...).Add(1)
	case s.Group == status.ClientStatus && s.Code == status.Timeout.ToInt32():
		m.timeouts.With(labels...).Add(1)
	default:
		m.failed.With(append(labels, "fail", fmt.Sprintf("Error - Group:%s - Code:%d", s.Group, s.Code))...).Add(1)
	}
	return resp, err
}
