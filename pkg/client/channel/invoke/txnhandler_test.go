/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	reqContext "context"
	"sync/atomic"
	"testing"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke/policy"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/test/mockmsp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/mocks"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

const testChaincode = "ledgerCC"

func newUser(t *testing.T, mspID, id string) *mspimpl.User {
	certPEM, keyPEM, err := mockmsp.NewCertAndKey(id)
	require.NoError(t, err)
	user, err := mspimpl.NewUser(mspID, id, certPEM, keyPEM)
	require.NoError(t, err)
	return user
}

// endorser answers every proposal with the configured response. Successful
// responses are endorsed by signer; the endorsement names identity, which
// defaults to signer.
type endorser struct {
	signer   msp.SigningIdentity
	identity msp.Identity
	status   int32
	message  string
	payload  []byte
	calls    int32
}

func (e *endorser) ProcessTransactionProposal(_ reqContext.Context, _ fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	atomic.AddInt32(&e.calls, 1)

	response := &pb.Response{Status: e.status, Message: e.message, Payload: e.payload}
	resp := &fab.TransactionProposalResponse{
		Endorser:         "peer0",
		Status:           200,
		ChaincodeStatus:  e.status,
		ProposalResponse: &pb.ProposalResponse{Response: response},
	}
	if e.status != 200 {
		return resp, nil
	}

	payload, err := protoutil.GetBytesProposalResponsePayload(nil, response, nil, &pb.ChaincodeID{Name: testChaincode})
	if err != nil {
		return nil, err
	}
	identity := e.identity
	if identity == nil {
		identity = e.signer
	}
	serialized, err := identity.Serialize()
	if err != nil {
		return nil, err
	}
	signature, err := e.signer.Sign(protoutil.EndorsementMessage(payload, serialized))
	if err != nil {
		return nil, err
	}
	resp.ProposalResponse.Payload = payload
	resp.ProposalResponse.Endorsement = &pb.Endorsement{Endorser: serialized, Signature: signature}
	return resp, nil
}

type orderer struct {
	err   error
	calls int32
}

func (o *orderer) URL() string {
	return "orderer.example.com"
}

func (o *orderer) SendBroadcast(reqContext.Context, *fab.SignedEnvelope) (*cb.Status, error) {
	atomic.AddInt32(&o.calls, 1)
	if o.err != nil {
		return nil, o.err
	}
	st := cb.Status_SUCCESS
	return &st, nil
}

type fixture struct {
	endorser     *endorser
	orderer      *orderer
	eventService *mocks.MockEventService
	client       *ClientContext
}

func newFixture(t *testing.T) *fixture {
	user := newUser(t, "Org1MSP", "user1")
	o := &orderer{}
	transactor, err := channel.NewTransactor(mocks.NewMockEndpointConfig(), user, []fab.Orderer{o}, channel.WithArity(ledgercc.Arity))
	require.NoError(t, err)

	es := mocks.NewMockEventService()
	return &fixture{
		endorser:     &endorser{signer: newUser(t, "Org1MSP", "peer0"), status: 200, payload: []byte("100")},
		orderer:      o,
		eventService: es,
		client: &ClientContext{
			Transactor:   transactor,
			EventService: es,
			Policy:       policy.MustNew(policy.Default),
		},
	}
}

func (f *fixture) request(fcn string, args ...string) *RequestContext {
	var byteArgs [][]byte
	for _, a := range args {
		byteArgs = append(byteArgs, []byte(a))
	}
	return &RequestContext{
		Request: Request{ChaincodeID: testChaincode, Fcn: fcn, Args: byteArgs},
		Opts: Opts{
			Targets:  []fab.ProposalProcessor{f.endorser},
			Timeouts: map[fab.TimeoutType]time.Duration{fab.Execute: 5 * time.Second},
		},
		Ctx: reqContext.Background(),
	}
}

// deliver answers the next registration with the given validation code
func (f *fixture) deliver(code pb.TxValidationCode) {
	go func() {
		reg := <-f.eventService.TxStatusRegCh
		reg.Eventch <- &fab.TxStatusEvent{TxID: reg.TxID, TxValidationCode: code, BlockNumber: 3}
	}()
}

func TestExecuteCommitted(t *testing.T) {
	f := newFixture(t)
	f.deliver(pb.TxValidationCode_VALID)

	rc := f.request("transfer", "1", "2", "30")
	NewExecuteHandler().Handle(rc, f.client)

	require.NoError(t, rc.Error)
	assert.Equal(t, Committed, rc.Response.Outcome)
	assert.Equal(t, pb.TxValidationCode_VALID, rc.Response.TxValidationCode)
	assert.Equal(t, uint64(3), rc.Response.BlockNumber)
	assert.Equal(t, []byte("100"), rc.Response.Payload)
	assert.NotEmpty(t, rc.Response.TransactionID)
	assert.Len(t, f.eventService.Unregistered(), 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.orderer.calls))
}

func TestExecuteInvalid(t *testing.T) {
	f := newFixture(t)
	f.deliver(pb.TxValidationCode_MVCC_READ_CONFLICT)

	rc := f.request("transfer", "1", "2", "30")
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, Invalid, rc.Response.Outcome)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, rc.Response.TxValidationCode)
	assert.True(t, status.Is(rc.Error, status.EventServerStatus, status.Code(pb.TxValidationCode_MVCC_READ_CONFLICT)))
}

func TestExecuteTimeoutIgnoresLateEvent(t *testing.T) {
	f := newFixture(t)

	rc := f.request("addAccount", "5", "Ann", "10")
	rc.Opts.Timeouts[fab.Execute] = 100 * time.Millisecond

	start := time.Now()
	NewExecuteHandler().Handle(rc, f.client)
	assert.True(t, time.Since(start) >= 100*time.Millisecond)

	require.Error(t, rc.Error)
	assert.Equal(t, Timeout, rc.Response.Outcome)
	assert.True(t, status.Is(rc.Error, status.ClientStatus, status.Timeout))
	assert.Contains(t, rc.Error.Error(), TimeoutMessage)

	reg := <-f.eventService.TxStatusRegCh
	assert.Equal(t, []fab.Registration{reg}, f.eventService.Unregistered())

	// the event arrives after the deadline
	reg.Eventch <- &fab.TxStatusEvent{TxID: reg.TxID, TxValidationCode: pb.TxValidationCode_VALID}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Timeout, rc.Response.Outcome)
	assert.Equal(t, pb.TxValidationCode(0), rc.Response.TxValidationCode)
}

func TestExecuteOrderFailed(t *testing.T) {
	f := newFixture(t)
	f.orderer.err = status.New(status.OrdererServerStatus, int32(cb.Status_BAD_REQUEST), "bad envelope", nil)

	rc := f.request("transfer", "1", "2", "30")
	start := time.Now()
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, OrderFailed, rc.Response.Outcome)
	assert.True(t, status.Is(rc.Error, status.ClientStatus, status.OrderFailed))
	assert.Contains(t, rc.Error.Error(), "bad envelope")
	assert.True(t, time.Since(start) < 5*time.Second, "order failure must not wait for the deadline")
	assert.Len(t, f.eventService.Unregistered(), 1)
}

func TestExecuteProposalRejected(t *testing.T) {
	f := newFixture(t)
	f.endorser.status = 500
	f.endorser.message = "InsufficientBalance: Account doesn't have enough balance"

	rc := f.request("transfer", "1", "2", "300")
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, ProposalRejected, rc.Response.Outcome)
	assert.True(t, status.Is(rc.Error, status.EndorserClientStatus, status.ProposalRejected))
	assert.Contains(t, rc.Error.Error(), "enough balance")
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.orderer.calls))
	assert.Len(t, f.eventService.TxStatusRegCh, 0)
}

func TestExecuteEndorsementError(t *testing.T) {
	f := newFixture(t)
	failing := &mocks.MockPeer{MockURL: "peer1", Error: errors.New("connection refused")}

	rc := f.request("transfer", "1", "2", "30")
	rc.Opts.Targets = []fab.ProposalProcessor{failing}
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, ProposalRejected, rc.Response.Outcome)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.orderer.calls))
}

func TestExecuteBadEndorsementSignature(t *testing.T) {
	f := newFixture(t)
	f.endorser.identity = newUser(t, "Org1MSP", "impostor")

	rc := f.request("transfer", "1", "2", "30")
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, ProposalRejected, rc.Response.Outcome)
	assert.True(t, status.Is(rc.Error, status.EndorserClientStatus, status.SignatureVerificationFailed))
}

func TestArityCheckedBeforeSending(t *testing.T) {
	f := newFixture(t)

	rc := f.request("transfer", "1", "2")
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.True(t, status.Is(rc.Error, status.ClientStatus, status.ArityError))
	assert.Empty(t, rc.Response.Outcome)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.endorser.calls))
}

func TestNoTargets(t *testing.T) {
	f := newFixture(t)

	rc := f.request("query", "1")
	rc.Opts.Targets = nil
	NewQueryHandler().Handle(rc, f.client)

	assert.True(t, status.Is(rc.Error, status.ClientStatus, status.NoPeersFound))
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	f.endorser.payload = []byte(`{"id":"1","name":"Jim","balance":"100"}`)

	rc := f.request("query", "1")
	NewQueryHandler().Handle(rc, f.client)

	require.NoError(t, rc.Error)
	assert.Equal(t, f.endorser.payload, rc.Response.Payload)
	assert.Empty(t, rc.Response.Outcome)
	assert.Len(t, f.eventService.TxStatusRegCh, 0, "queries are not ordered")
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.orderer.calls))
}

func TestEndorsementMismatch(t *testing.T) {
	f := newFixture(t)
	other := &endorser{signer: newUser(t, "Org1MSP", "peer1"), status: 200, payload: []byte("99")}

	rc := f.request("query", "1")
	rc.Opts.Targets = []fab.ProposalProcessor{f.endorser, other}
	NewQueryHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.True(t, status.Is(rc.Error, status.EndorserClientStatus, status.EndorsementMismatch))
}

func TestCommitRaceResolvesOnce(t *testing.T) {
	r := newCommitRace()

	assert.True(t, r.resolve(commitResult{outcome: Timeout}))
	assert.False(t, r.resolve(commitResult{outcome: Committed}))
	assert.Equal(t, Timeout, r.wait().outcome)
}

func TestCommitTimeoutDefault(t *testing.T) {
	assert.Equal(t, DefaultCommitTimeout, commitTimeout(Opts{}))
	assert.Equal(t, time.Second, commitTimeout(Opts{Timeouts: map[fab.TimeoutType]time.Duration{fab.Execute: time.Second}}))
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	f.deliver(pb.TxValidationCode_VALID)

	rc := f.request("transfer", "1", "2", "30")
	rc.Progress = &Progress{}
	NewExecuteHandler().Handle(rc, f.client)
	require.NoError(t, rc.Error)

	txnID, committing := rc.Progress.Get()
	assert.Equal(t, rc.Response.TransactionID, txnID)
	assert.True(t, committing)

	var none *Progress
	txnID, committing = none.Get()
	assert.Empty(t, txnID)
	assert.False(t, committing)
}

func TestExecuteCancelledBeforeCommitIsNotOrdered(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := reqContext.WithCancel(reqContext.Background())
	cancel()

	rc := f.request("transfer", "1", "2", "30")
	rc.Ctx = ctx
	NewExecuteHandler().Handle(rc, f.client)

	require.Error(t, rc.Error)
	assert.Equal(t, Timeout, rc.Response.Outcome)
	assert.NotEmpty(t, rc.Response.TransactionID)
	assert.True(t, status.Is(rc.Error, status.ClientStatus, status.Timeout))
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.orderer.calls))
	assert.Len(t, f.eventService.TxStatusRegCh, 0)
}
