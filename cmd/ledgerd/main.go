/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"os"

	"github.com/sharad-develop/fabric-node-ledger/cmd/ledgerd/cmd"
	"github.com/sharad-develop/fabric-node-ledger/internal/cli"
)

func main() {
	ctx, cancel := cli.SignalContext(context.Background())
	err := cmd.New().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
