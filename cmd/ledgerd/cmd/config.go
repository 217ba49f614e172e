/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective connection config",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := configProvider(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.FromProvider(provider)
			if err != nil {
				return err
			}
			raw, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
