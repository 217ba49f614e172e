/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package channel enables access to the ledger channel.
//
// A channel client submits transactions through a chain of handlers:
// endorsement, endorsement validation, signature validation and commit.
// Execute resolves every transaction to exactly one invoke.Outcome.
// Query stops after endorsement; nothing is ordered.
package channel

import (
	reqContext "context"
	"time"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke/policy"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/multi"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics/disabled"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

var logger = logging.NewLogger("ledger/client")

const (
	defaultQueryTimeout = 30 * time.Second
)

// Client enables access to a channel of the ledger.
//
// A channel client instance provides a handler to interact with peers on specified channel.
// An application that requires interaction with multiple channels should create a separate
// instance of the channel client for each channel.
type Client struct {
	config       fab.EndpointConfig
	transactor   fab.Transactor
	eventService fab.EventService
	targets      []fab.ProposalProcessor
	policy       *policy.Policy
	retry        retry.Opts
	metrics      *Metrics
}

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithDefaultTargets sets the endorsers of requests that do not name their own targets
func WithDefaultTargets(targets ...fab.ProposalProcessor) ClientOption {
	return func(client *Client) error {
		client.targets = targets
		return nil
	}
}

// WithPolicy overrides the endorsement policy of the channel config
func WithPolicy(expression string) ClientOption {
	return func(client *Client) error {
		p, err := policy.New(expression)
		if err != nil {
			return err
		}
		client.policy = p
		return nil
	}
}

// WithDefaultRetry sets the retry options of requests that do not name their own
func WithDefaultRetry(opts retry.Opts) ClientOption {
	return func(client *Client) error {
		client.retry = opts
		return nil
	}
}

// WithMetrics records the client's meters on provider
func WithMetrics(provider metrics.Provider) ClientOption {
	return func(client *Client) error {
		client.metrics = NewMetrics(provider)
		return nil
	}
}

// New returns a Client instance.
func New(config fab.EndpointConfig, transactor fab.Transactor, eventService fab.EventService, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("endpoint config is required")
	}
	if transactor == nil {
		return nil, errors.New("transactor is required")
	}
	if eventService == nil {
		return nil, errors.New("event service is required")
	}

	channelClient := Client{
		config:       config,
		transactor:   transactor,
		eventService: eventService,
	}

	for _, param := range opts {
		if err := param(&channelClient); err != nil {
			return nil, errors.WithMessage(err, "failed to create channel client")
		}
	}

	if channelClient.policy == nil {
		var expression string
		if chConfig := config.ChannelConfig(); chConfig != nil {
			expression = chConfig.Policy
		}
		p, err := policy.New(expression)
		if err != nil {
			return nil, err
		}
		channelClient.policy = p
	}
	if channelClient.metrics == nil {
		channelClient.metrics = NewMetrics(&disabled.Provider{})
	}

	return &channelClient, nil
}

// Query chaincode using request and optional options provided
func (cc *Client) Query(request Request, options ...RequestOption) (Response, error) {
	return callQuery(cc, request, cc.addDefaultTimeout(fab.Query, options...)...)
}

// Execute prepares and executes transaction using request and optional options provided
func (cc *Client) Execute(request Request, options ...RequestOption) (Response, error) {
	return callExecute(cc, request, cc.addDefaultTimeout(fab.Execute, options...)...)
}

//InvokeHandler invokes handler using request and options provided. The
//handler chain is run again on retryable errors.
func (cc *Client) InvokeHandler(handler invoke.Handler, request Request, options ...RequestOption) (Response, error) {
	return cc.run(handler, false, request, options...)
}

//run runs handler. A submit runs once: it resolves to an outcome and keeps
//its transaction ID even when the caller stops waiting.
func (cc *Client) run(handler invoke.Handler, submit bool, request Request, options ...RequestOption) (Response, error) {
	//Read execute tx options
	txnOpts, err := cc.prepareOptsFromOptions(options...)
	if err != nil {
		return Response{}, err
	}

	reqCtx, cancel := cc.createReqContext(&txnOpts)
	defer cancel()

	//Prepare context objects for handler
	requestContext, clientContext, err := cc.prepareHandlerContexts(reqCtx, request, txnOpts)
	if err != nil {
		return Response{}, err
	}

	complete := make(chan bool, 1)

	go func() {
	handleInvoke:
		//Perform action through handler
		handler.Handle(requestContext, clientContext)
		if !submit && cc.resolveRetry(requestContext, txnOpts) {
			goto handleInvoke
		}
		complete <- true
	}()
	select {
	case <-complete:
		return Response(requestContext.Response), requestContext.Error
	case <-reqCtx.Done():
	}

	txnID, committing := requestContext.Progress.Get()
	if committing {
		// the commit stage resolves as soon as reqCtx is done
		<-complete
		return Response(requestContext.Response), requestContext.Error
	}
	resp := Response{TransactionID: txnID}
	if submit {
		resp.Outcome = invoke.Timeout
	}
	return resp, status.New(status.ClientStatus, status.Timeout.ToInt32(),
		"request timed out or been cancelled", nil)
}

func (cc *Client) resolveRetry(ctx *invoke.RequestContext, o requestOptions) bool {
	if ctx.Error == nil || ctx.Ctx.Err() != nil {
		return false
	}
	errs, ok := errors.Cause(ctx.Error).(multi.Errors)
	if !ok {
		errs = append(errs, ctx.Error)
	}
	for _, e := range errs {
		if ctx.RetryHandler.Required(e) {
			logger.Infof("Retrying on error %s", e)

			// Reset context parameters
			ctx.Opts.Targets = o.Targets
			ctx.Error = nil
			ctx.Response = invoke.Response{}

			return true
		}
	}
	return false
}

//createReqContext bounds queries by their timeout. Executions are bounded by
//the stage timeouts and the commit timeout instead.
func (cc *Client) createReqContext(txnOpts *requestOptions) (reqContext.Context, reqContext.CancelFunc) {
	parent := txnOpts.ParentContext
	if parent == nil {
		parent = reqContext.Background()
	}
	if t, ok := txnOpts.Timeouts[fab.Query]; ok {
		return reqContext.WithTimeout(parent, t)
	}
	return reqContext.WithCancel(parent)
}

//prepareHandlerContexts prepares context objects for handlers
func (cc *Client) prepareHandlerContexts(reqCtx reqContext.Context, request Request, o requestOptions) (*invoke.RequestContext, *invoke.ClientContext, error) {
	if request.ChaincodeID == "" || request.Fcn == "" {
		return nil, nil, errors.New("ChaincodeID and Fcn are required")
	}

	clientContext := &invoke.ClientContext{
		Transactor:   cc.transactor,
		EventService: cc.eventService,
		Policy:       cc.policy,
	}

	requestContext := &invoke.RequestContext{
		Request:      invoke.Request(request),
		Opts:         invoke.Opts(o),
		Response:     invoke.Response{},
		RetryHandler: retry.New(o.Retry),
		Ctx:          reqCtx,
		Progress:     &invoke.Progress{},
	}

	return requestContext, clientContext, nil
}

//prepareOptsFromOptions Reads apitxn.Opts from Option array
func (cc *Client) prepareOptsFromOptions(options ...RequestOption) (requestOptions, error) {
	txnOpts := requestOptions{}
	for _, option := range options {
		err := option(&txnOpts)
		if err != nil {
			return txnOpts, errors.WithMessage(err, "Failed to read opts")
		}
	}
	if len(txnOpts.Targets) == 0 {
		txnOpts.Targets = cc.targets
	}
	if txnOpts.Retry.Attempts == 0 && len(txnOpts.Retry.RetryableCodes) == 0 {
		txnOpts.Retry = cc.retry
	}
	return txnOpts, nil
}

//addDefaultTimeout adds given default timeout if it is missing in options
func (cc *Client) addDefaultTimeout(timeOutType fab.TimeoutType, options ...RequestOption) []RequestOption {
	txnOpts := requestOptions{}
	for _, option := range options {
		option(&txnOpts) // nolint: errcheck
	}

	if _, ok := txnOpts.Timeouts[timeOutType]; ok {
		return options
	}

	timeout := cc.config.Timeout(timeOutType)
	if timeout <= 0 {
		switch timeOutType {
		case fab.Execute:
			timeout = invoke.DefaultCommitTimeout
		default:
			timeout = defaultQueryTimeout
		}
	}
	return append(options, WithTimeout(timeOutType, timeout))
}
