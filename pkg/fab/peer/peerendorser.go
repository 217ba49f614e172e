/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	reqContext "context"
	"crypto/x509"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/comm"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

// peerEndorser enables access to a GRPC-based endorser for running transaction proposal simulations
type peerEndorser struct {
	target string
	conn   *grpc.ClientConn
	client pb.EndorserClient
}

type peerEndorserRequest struct {
	target             string
	certificate        *x509.Certificate
	serverHostOverride string
	config             fab.EndpointConfig
	kap                keepalive.ClientParameters
	failFast           bool
}

func newPeerEndorser(endorseReq *peerEndorserRequest) (*peerEndorser, error) {
	if len(endorseReq.target) == 0 {
		return nil, errors.New("target is required")
	}

	opts := []options.Opt{
		comm.WithCertificate(endorseReq.certificate),
		comm.WithHostOverride(endorseReq.serverHostOverride),
		comm.WithKeepAliveParams(endorseReq.kap),
		comm.WithFailFast(endorseReq.failFast),
	}
	if endorseReq.config != nil {
		opts = append(opts, comm.WithConnectTimeout(endorseReq.config.Timeout(fab.PeerConnection)))
	}

	conn, err := comm.Dial(reqContext.Background(), endorseReq.target, opts...)
	if err != nil {
		return nil, err
	}

	return &peerEndorser{
		target: endorseReq.target,
		conn:   conn,
		client: pb.NewEndorserClient(conn),
	}, nil
}

// ProcessTransactionProposal sends the transaction proposal to a peer and returns the response.
func (p *peerEndorser) ProcessTransactionProposal(ctx reqContext.Context, request fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	logger.Debugf("Processing proposal using endorser: %s", p.target)

	proposalResponse, err := p.client.ProcessProposal(ctx, request.SignedProposal)
	if err != nil {
		tpr := fab.TransactionProposalResponse{Endorser: p.target}
		return &tpr, errors.Wrapf(comm.StatusFromError(err, status.EndorserClientStatus, p.target),
			"Transaction processing for endorser [%s]", p.target)
	}
	if proposalResponse.GetResponse() == nil {
		return nil, status.New(status.EndorserClientStatus, status.Unknown.ToInt32(), "proposal response carries no response", []interface{}{p.target})
	}

	chaincodeStatus, err := getChaincodeResponseStatus(proposalResponse)
	if err != nil {
		return nil, errors.WithMessage(err, "chaincode response status parsing failed")
	}

	tpr := fab.TransactionProposalResponse{
		ProposalResponse: proposalResponse,
		Endorser:         p.target,
		ChaincodeStatus:  chaincodeStatus,
		Status:           proposalResponse.GetResponse().GetStatus(),
	}
	return &tpr, extractChaincodeErrorFromResponse(proposalResponse, p.target)
}

// Close closes the connection to the endorser
func (p *peerEndorser) Close() error {
	return p.conn.Close()
}

// extractChaincodeErrorFromResponse returns an error for a response outside
// of the success range. Chaincode errors of a known kind keep their kind.
func extractChaincodeErrorFromResponse(resp *pb.ProposalResponse, endorser string) error {
	st := resp.GetResponse().GetStatus()
	if st >= int32(cb.Status_SUCCESS) && st < int32(cb.Status_BAD_REQUEST) {
		return nil
	}
	message := resp.GetResponse().GetMessage()
	if code, text, ok := ledgercc.ParseError(message); ok {
		s := status.NewFromChaincodeError(code, text)
		s.Details = []interface{}{endorser}
		return s
	}
	return status.NewFromProposalResponse(resp, endorser)
}

// getChaincodeResponseStatus gets the chaincode status from the signed response payload
func getChaincodeResponseStatus(response *pb.ProposalResponse) (int32, error) {
	if len(response.Payload) > 0 {
		ca, err := protoutil.GetActionFromProposalResponsePayload(response.Payload)
		if err != nil {
			return 0, errors.WithMessage(err, "unmarshal of proposal response payload failed")
		}
		return ca.GetResponse().GetStatus(), nil
	}
	return response.GetResponse().GetStatus(), nil
}
