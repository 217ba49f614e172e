/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cmd implements the ledgernode commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sharad-develop/fabric-node-ledger/internal/cli"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config"
)

var logger = logging.NewLogger("ledger/cmd")

const flagLogLevel = "log-level"

// New returns the ledgernode root command
func New() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgernode",
		Short:        "Single replica ledger network with its certificate authority",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.BindFlags(cmd); err != nil {
				return err
			}
			level, err := cmd.Flags().GetString(flagLogLevel)
			if err != nil {
				return err
			}
			return config.SetLogLevel(level)
		},
	}
	root.PersistentFlags().String(flagLogLevel, "INFO", "log level of every module")

	root.AddCommand(newStartCmd())
	return root
}
