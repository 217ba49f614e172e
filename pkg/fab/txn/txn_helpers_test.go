/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/test/mockmsp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

const testChannel = "mychannel"

func newTestUser(t *testing.T) *msp.User {
	certPEM, keyPEM, err := mockmsp.NewCertAndKey("user1")
	require.NoError(t, err)
	user, err := msp.NewUser("Org1MSP", "user1", certPEM, keyPEM)
	require.NoError(t, err)
	return user
}
