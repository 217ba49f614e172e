/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// FilteredBlockReg receives every block the dispatcher handles
type FilteredBlockReg struct {
	Eventch chan<- *fab.FilteredBlockEvent
}

// TxStatusReg receives the commit event of one transaction. At most one
// registration per transaction ID exists at a time.
type TxStatusReg struct {
	TxID    string
	Eventch chan<- *fab.TxStatusEvent
}

// ConnectionReg receives connect and disconnect notifications of the
// deliver client
type ConnectionReg struct {
	Eventch chan<- *fab.ConnectionEvent
}
