/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/ca"
)

func TestStart(t *testing.T) {
	dataDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(500*time.Millisecond, cancel)

	root := New()
	root.SetArgs([]string{"start",
		"--data-dir", dataDir,
		"--peer-listen", "127.0.0.1:0",
		"--orderer-listen", "127.0.0.1:0",
		"--events-listen", "127.0.0.1:0",
		"--ca-listen", "127.0.0.1:0",
		"--batch-timeout", "50ms",
	})
	require.NoError(t, root.ExecuteContext(ctx))

	assert.FileExists(t, filepath.Join(dataDir, "ca", ca.CertFileName))
	assert.DirExists(t, filepath.Join(dataDir, "ledger"))
}

func TestStartRejectsBadLogLevel(t *testing.T) {
	root := New()
	root.SetArgs([]string{"start", "--log-level", "LOUD", "--data-dir", t.TempDir()})
	assert.Error(t, root.Execute())
}
