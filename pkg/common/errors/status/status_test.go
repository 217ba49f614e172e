/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"fmt"
	"testing"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	grpccodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/multi"
)

func TestStatusConstructors(t *testing.T) {
	s := New(EndorserClientStatus, ConnectionFailed.ToInt32(), "test", nil)
	assert.EqualValues(t, ConnectionFailed, ToSDKStatusCode(s.Code))
	assert.Equal(t, EndorserClientStatus, s.Group)
	assert.Equal(t, "test", s.Message)

	assert.Nil(t, NewFromGRPCStatus(nil))
	s = NewFromGRPCStatus(grpcstatus.New(grpccodes.DeadlineExceeded, "test"))
	assert.EqualValues(t, grpccodes.DeadlineExceeded, ToGRPCStatusCode(s.Code))
	assert.Equal(t, GRPCTransportStatus, s.Group)

	assert.Nil(t, NewFromProposalResponse(nil, ""))
	s = NewFromProposalResponse(&pb.ProposalResponse{
		Response: &pb.Response{
			Status:  int32(cb.Status_BAD_REQUEST),
			Message: "test",
		}}, "localhost:7051")
	assert.Equal(t, cb.Status_BAD_REQUEST, ToServerStatusCode(s.Code))
	assert.Equal(t, EndorserServerStatus, s.Group)
	assert.Equal(t, "localhost:7051", s.Details[0].(string))

	s = NewFromChaincodeError(InsufficientBalance, "Account doesn't have enough balance")
	assert.Equal(t, ChaincodeStatus, s.Group)
	assert.Equal(t, "Chaincode Status Code: (33) INSUFFICIENT_BALANCE. Description: Account doesn't have enough balance", s.Error())
}

func TestFromError(t *testing.T) {
	s := New(OrdererClientStatus, OrderFailed.ToInt32(), "rejected", nil)
	derived, ok := FromError(s)
	assert.True(t, ok)
	assert.Equal(t, s, derived)

	derived, ok = FromError(errors.Wrap(s, "broadcast"))
	assert.True(t, ok)
	assert.Equal(t, s, derived)

	derived, ok = FromError(nil)
	assert.True(t, ok)
	assert.EqualValues(t, OK, derived.Code)

	_, ok = FromError(fmt.Errorf("plain"))
	assert.False(t, ok)

	derived, ok = FromError(multi.New(fmt.Errorf("a"), fmt.Errorf("b")))
	assert.True(t, ok)
	assert.EqualValues(t, MultipleErrors, derived.Code)
	assert.Len(t, derived.Details, 2)
}

func TestIs(t *testing.T) {
	err := errors.WithMessage(New(ClientStatus, ArityError.ToInt32(), "expecting 3", nil), "transfer")
	assert.True(t, Is(err, ClientStatus, ArityError))
	assert.False(t, Is(err, ClientStatus, Timeout))
	assert.False(t, Is(fmt.Errorf("x"), ClientStatus, ArityError))
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "PROPOSAL_REJECTED", ProposalRejected.String())
	assert.Equal(t, "99", Code(99).String())
	assert.Equal(t, "Event Server Status", EventServerStatus.String())
	assert.Equal(t, "Unknown", Group(99).String())

	s := New(EventServerStatus, int32(pb.TxValidationCode_MVCC_READ_CONFLICT), "invalid", nil)
	assert.Contains(t, s.Error(), "MVCC_READ_CONFLICT")
}
