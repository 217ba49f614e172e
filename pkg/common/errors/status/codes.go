/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"strconv"

	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	grpcCodes "google.golang.org/grpc/codes"
)

// Code represents a status code
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0

	// Unknown represents status codes that are uncategorized or unknown
	Unknown Code = 1

	// ConnectionFailed is returned when a network connection attempt fails
	ConnectionFailed Code = 2

	// EndorsementMismatch is returned when there is a mismatch in endorsements received
	EndorsementMismatch Code = 3

	// Timeout operation timed out
	Timeout Code = 5

	// NoPeersFound No peers were configured
	NoPeersFound Code = 6

	// MultipleErrors multiple errors occurred
	MultipleErrors Code = 7

	// SignatureVerificationFailed is when signature fails verification
	SignatureVerificationFailed Code = 8

	// MissingEndorsement is if an endorsement is missing
	MissingEndorsement Code = 9

	// GenericTransient is generally used by tests to indicate that a retry is possible
	GenericTransient Code = 12

	// ArityError the argument count does not match the function
	ArityError Code = 30

	// NotFound the requested key does not exist
	NotFound Code = 31

	// NoResults the query produced no response
	NoResults Code = 32

	// InsufficientBalance the source account balance does not exceed the amount
	InsufficientBalance Code = 33

	// InvalidArgument an argument could not be interpreted
	InvalidArgument Code = 34

	// UnknownFunction the chaincode does not implement the function
	UnknownFunction Code = 35

	// ProposalRejected endorsement of the proposal failed
	ProposalRejected Code = 40

	// OrderFailed the ordering service rejected the transaction
	OrderFailed Code = 41

	// IdentityError enrollment or registration failed
	IdentityError Code = 50
)

// CodeName maps the codes in this packages to human-readable strings
var CodeName = map[int32]string{
	0:  "OK",
	1:  "UNKNOWN",
	2:  "CONNECTION_FAILED",
	3:  "ENDORSEMENT_MISMATCH",
	5:  "TIMEOUT",
	6:  "NO_PEERS_FOUND",
	7:  "MULTIPLE_ERRORS",
	8:  "SIGNATURE_VERIFICATION_FAILED",
	9:  "MISSING_ENDORSEMENT",
	12: "GENERIC_TRANSIENT",
	30: "ARITY_ERROR",
	31: "NOT_FOUND",
	32: "NO_RESULTS",
	33: "INSUFFICIENT_BALANCE",
	34: "INVALID_ARGUMENT",
	35: "UNKNOWN_FUNCTION",
	40: "PROPOSAL_REJECTED",
	41: "ORDER_FAILED",
	50: "IDENTITY_ERROR",
}

// ToInt32 cast to int32
func (c Code) ToInt32() int32 {
	return int32(c)
}

// String representation of the code
func (c Code) String() string {
	if s, ok := CodeName[c.ToInt32()]; ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// ToSDKStatusCode cast to client status code
func ToSDKStatusCode(c int32) Code {
	return Code(c)
}

// ToGRPCStatusCode cast to gRPC status code
func ToGRPCStatusCode(c int32) grpcCodes.Code {
	return grpcCodes.Code(c)
}

// ToServerStatusCode cast to endorser/orderer status
func ToServerStatusCode(c int32) common.Status {
	return common.Status(c)
}

// ToTransactionValidationCode cast to transaction validation status code
func ToTransactionValidationCode(c int32) pb.TxValidationCode {
	return pb.TxValidationCode(c)
}
