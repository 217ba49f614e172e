/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cmd implements the ledgerd commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sharad-develop/fabric-node-ledger/internal/cli"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config"
)

var logger = logging.NewLogger("ledger/cmd")

const flagConfig = "config"

// New returns the ledgerd root command
func New() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerd",
		Short:        "Ledger REST gateway",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.BindFlags(cmd)
		},
	}
	root.PersistentFlags().String(flagConfig, "", "path of the connection config file, LEDGER_* variables are used when empty")

	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func configProvider(cmd *cobra.Command) (core.ConfigProvider, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.FromFile(path), nil
}
