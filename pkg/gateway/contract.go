/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"encoding/json"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
	"github.com/sharad-develop/fabric-node-ledger/pkg/client/ledger"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	fabchannel "github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

// AddAccount creates the account id, or replaces it if it exists, on behalf
// of username
func (gw *Gateway) AddAccount(username, id, name, balance string) (*Outcome, error) {
	return gw.submit(username, ledgercc.FcnAddAccount, id, name, balance)
}

// Transfer moves amount from account fromID to account toID on behalf of
// username
func (gw *Gateway) Transfer(username, fromID, toID, amount string) (*Outcome, error) {
	return gw.submit(username, ledgercc.FcnTransfer, fromID, toID, amount)
}

// Query returns the stored record of account id. Nothing is ordered.
func (gw *Gateway) Query(username, id string) ([]byte, error) {
	return gw.evaluate(username, ledgercc.FcnQuery, id)
}

// QueryAll returns every account of the ledger
func (gw *Gateway) QueryAll(username string) ([]ledgercc.QueryResult, error) {
	payload, err := gw.evaluate(username, ledgercc.FcnQueryAll)
	if err != nil {
		return nil, err
	}

	var results []ledgercc.QueryResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, errors.Wrap(err, "unmarshal of queryAll result failed")
	}
	return results, nil
}

// Transaction looks up the validation result of txID in the ledger. It
// returns a ChaincodeStatus NotFound error if the transaction was never
// committed.
func (gw *Gateway) Transaction(username, txID string) (*TransactionStatus, error) {
	id, err := gw.signingIdentity(username)
	if err != nil {
		return nil, err
	}

	client, err := ledger.New(gw.config.ChannelConfig().ID, id,
		ledger.WithDefaultTargets(gw.endorsers...),
		ledger.WithDefaultTimeout(gw.config.Timeout(fab.Query)))
	if err != nil {
		return nil, err
	}

	processed, err := client.QueryTransaction(fab.TransactionID(txID))
	if err != nil {
		return nil, err
	}
	block, err := client.QueryBlockByTxID(fab.TransactionID(txID))
	if err != nil {
		return nil, err
	}
	return &TransactionStatus{
		TxID:             txID,
		TxValidationCode: pb.TxValidationCode(processed.ValidationCode).String(),
		BlockNumber:      block.Number,
	}, nil
}

// submit executes fcn and resolves it to its Outcome. A transaction that
// reaches a terminal state is reported through the Outcome, not the error;
// the error is set only when nothing was sent, as for an unknown user or
// wrong arity.
func (gw *Gateway) submit(username, fcn string, args ...string) (*Outcome, error) {
	client, err := gw.channelClient(username)
	if err != nil {
		return nil, err
	}

	response, err := client.Execute(gw.request(fcn, args))
	if response.Outcome == "" {
		if err == nil {
			err = errors.New("transaction finished without an outcome")
		}
		return nil, errors.WithMessagef(err, "Failed to submit %s", fcn)
	}

	outcome := &Outcome{
		Status:      response.Outcome,
		TxID:        string(response.TransactionID),
		BlockNumber: response.BlockNumber,
	}

	switch response.Outcome {
	case invoke.Committed:
		outcome.EventStatus = response.TxValidationCode.String()
		outcome.Payload = string(response.Payload)
		logger.Infof("Transaction [%s] committed in block %d", outcome.TxID, outcome.BlockNumber)
	case invoke.Invalid:
		outcome.EventStatus = response.TxValidationCode.String()
		outcome.Reason = reason(err)
		logger.Warnf("Transaction [%s] was invalid: %s", outcome.TxID, outcome.EventStatus)
	case invoke.Timeout:
		outcome.EventStatus = string(invoke.Timeout)
		outcome.Message = invoke.TimeoutMessage
		logger.Warnf("Transaction [%s]: no commit event in time", outcome.TxID)
	default:
		outcome.Reason = reason(err)
		logger.Warnf("Transaction [%s] %s: %s", outcome.TxID, outcome.Status, outcome.Reason)
	}

	return outcome, nil
}

func (gw *Gateway) evaluate(username, fcn string, args ...string) ([]byte, error) {
	client, err := gw.channelClient(username)
	if err != nil {
		return nil, err
	}

	response, err := client.Query(gw.request(fcn, args))
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to evaluate %s", fcn)
	}
	if len(response.Payload) == 0 {
		return nil, status.New(status.ClientStatus, status.NoResults.ToInt32(), "No results to show", nil)
	}
	return response.Payload, nil
}

func (gw *Gateway) request(fcn string, args []string) channel.Request {
	bytes := make([][]byte, len(args))
	for i, v := range args {
		bytes[i] = []byte(v)
	}
	return channel.Request{
		ChaincodeID: gw.config.ChannelConfig().ChaincodeID,
		Fcn:         fcn,
		Args:        bytes,
	}
}

// channelClient returns the channel client that signs as username. Clients
// are created on first use and kept for the life of the gateway.
func (gw *Gateway) channelClient(username string) (*channel.Client, error) {
	if err := gw.checkOpen(); err != nil {
		return nil, err
	}
	return gw.channels.Get(username)
}

func (gw *Gateway) newChannelClient(username string) (*channel.Client, error) {
	id, err := gw.lookupIdentity(username)
	if err != nil {
		return nil, err
	}

	transactor, err := fabchannel.NewTransactor(gw.config, id, []fab.Orderer{gw.orderer},
		fabchannel.WithArity(ledgercc.Arity))
	if err != nil {
		return nil, err
	}

	return channel.New(gw.config, transactor, gw.events,
		channel.WithDefaultTargets(gw.endorsers...),
		channel.WithDefaultRetry(gw.config.RetryOpts()),
		channel.WithMetrics(gw.metrics))
}

func (gw *Gateway) signingIdentity(username string) (msp.SigningIdentity, error) {
	if err := gw.checkOpen(); err != nil {
		return nil, err
	}
	return gw.lookupIdentity(username)
}

func (gw *Gateway) lookupIdentity(username string) (msp.SigningIdentity, error) {
	id, err := gw.identity.GetSigningIdentity(username)
	if err != nil {
		return nil, status.New(status.IdentityClientStatus, status.IdentityError.ToInt32(),
			errors.WithMessagef(err, "Failed to get %s, register the user first", username).Error(), nil)
	}
	return id, nil
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	if s, ok := status.FromError(err); ok {
		return s.Message
	}
	return err.Error()
}
