/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

// Peer is an endorsing replica. Queries and invocations are both simulated
// through ProcessTransactionProposal.
type Peer interface {
	ProposalProcessor
	MSPID() string
	URL() string
}
