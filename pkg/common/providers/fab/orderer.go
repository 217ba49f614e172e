/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	reqContext "context"

	cb "github.com/hyperledger/fabric-protos-go/common"
)

// Orderer accepts endorsed transactions for ordering. A nil error means the
// transaction was queued, not that it committed.
type Orderer interface {
	URL() string
	SendBroadcast(ctx reqContext.Context, envelope *SignedEnvelope) (*cb.Status, error)
}

// SignedEnvelope is an encoded common.Payload and the creator's signature over it
type SignedEnvelope struct {
	Payload   []byte
	Signature []byte
}
