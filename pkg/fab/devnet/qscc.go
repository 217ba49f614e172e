/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"strconv"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

// queryLedger answers a ledger query. The first argument names the channel.
func (n *Node) queryLedger(fcn string, input [][]byte) *pb.Response {
	if len(input) == 0 {
		return ledgercc.Error(ledgercc.NewError(status.ArityError, "Incorrect number of arguments. Expecting channel ID").Error())
	}
	if channelID := string(input[0]); channelID != n.config.ChannelID {
		return ledgercc.Error(ledgercc.NewError(status.InvalidArgument, "channel [%s] not found", channelID).Error())
	}
	args := make([]string, len(input)-1)
	for i, a := range input[1:] {
		args[i] = string(a)
	}

	var result proto.Message
	var err error
	switch fcn {
	case channel.FcnGetChainInfo:
		result, err = n.chainInfo(args)
	case channel.FcnGetBlockByNumber:
		result, err = n.blockByNumber(args)
	case channel.FcnGetTransactionByID:
		result, err = n.transactionByID(args)
	case channel.FcnGetBlockByTxID:
		result, err = n.blockByTxID(args)
	default:
		err = ledgercc.NewError(status.UnknownFunction, "Received unknown function %s invocation", fcn)
	}
	if err != nil {
		return ledgercc.Error(err.Error())
	}

	payload, err := protoutil.Marshal(result)
	if err != nil {
		return ledgercc.Error(err.Error())
	}
	return ledgercc.Success(payload)
}

func (n *Node) chainInfo(args []string) (*cb.BlockchainInfo, error) {
	if err := checkQueryArity(args, 0); err != nil {
		return nil, err
	}
	height, err := n.db.Height()
	if err != nil {
		return nil, err
	}
	return &cb.BlockchainInfo{Height: height}, nil
}

func (n *Node) blockByNumber(args []string) (*pb.FilteredBlock, error) {
	if err := checkQueryArity(args, 1); err != nil {
		return nil, err
	}
	number, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, ledgercc.NewError(status.InvalidArgument, "block number must be a non-negative integer")
	}
	height, err := n.db.Height()
	if err != nil {
		return nil, err
	}
	if number >= height {
		return nil, ledgercc.NewError(status.NotFound, "block %s does not exist", args[0])
	}
	return n.db.GetBlock(number)
}

func (n *Node) transactionByID(args []string) (*pb.ProcessedTransaction, error) {
	if err := checkQueryArity(args, 1); err != nil {
		return nil, err
	}
	record, found, err := n.db.GetTransaction(args[0])
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ledgercc.NewError(status.NotFound, "transaction %s does not exist", args[0])
	}

	processed := &pb.ProcessedTransaction{ValidationCode: int32(record.TxValidationCode)}
	if len(record.Envelope) > 0 {
		env, err := protoutil.UnmarshalEnvelope(record.Envelope)
		if err != nil {
			return nil, errors.WithMessagef(err, "envelope of transaction %s is corrupt", args[0])
		}
		processed.TransactionEnvelope = env
	}
	return processed, nil
}

func (n *Node) blockByTxID(args []string) (*pb.FilteredBlock, error) {
	if err := checkQueryArity(args, 1); err != nil {
		return nil, err
	}
	record, found, err := n.db.GetTransaction(args[0])
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ledgercc.NewError(status.NotFound, "transaction %s does not exist", args[0])
	}
	return n.db.GetBlock(record.BlockNumber)
}

func checkQueryArity(args []string, want int) error {
	if len(args) != want {
		return ledgercc.NewError(status.ArityError, "Incorrect number of arguments. Expecting %d", want)
	}
	return nil
}
