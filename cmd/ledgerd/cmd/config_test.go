/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
client:
  mspid: Org2MSP
  commitTimeout: 4s
orderer:
  url: orderer.example.com:7050
`

func TestConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))

	out := &bytes.Buffer{}
	root := New()
	root.SetOut(out)
	root.SetArgs([]string{"config", "--config", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "mspid: Org2MSP")
	assert.Contains(t, out.String(), "commitTimeout: 4s")
	assert.Contains(t, out.String(), "orderer.example.com:7050")
}

func TestServeRequiresValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  commitTimeout: -1s\n"), 0600))

	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--config", path, "--listen", "127.0.0.1:0"})
	assert.Error(t, root.Execute())
}
