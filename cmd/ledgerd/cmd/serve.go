/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	metricsprom "github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics/prometheus"
	"github.com/sharad-develop/fabric-node-ledger/pkg/gateway"
	"github.com/sharad-develop/fabric-node-ledger/pkg/restapi"
)

const (
	flagListen      = "listen"
	flagMaxBodySize = "max-body-size"
)

func newServeCmd() *cobra.Command {
	var listen string
	var maxBodySize int64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the ledger API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, listen, maxBodySize)
		},
	}
	cmd.Flags().StringVar(&listen, flagListen, ":3000", "address the REST API listens on")
	cmd.Flags().Int64Var(&maxBodySize, flagMaxBodySize, restapi.DefaultMaxBodySize, "maximum size of a request body in bytes")
	return cmd
}

func serve(cmd *cobra.Command, listen string, maxBodySize int64) error {
	provider, err := configProvider(cmd)
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gw, err := gateway.Connect(gateway.WithConfig(provider), gateway.WithMetrics(metricsprom.NewProvider(registry)))
	if err != nil {
		return errors.WithMessage(err, "failed to connect the gateway")
	}
	defer gw.Close()

	server, err := restapi.New(gw,
		restapi.WithMaxBodySize(maxBodySize),
		restapi.WithGatherer(registry),
		restapi.WithHealthChecker("gateway", gw),
	)
	if err != nil {
		return err
	}

	logger.Infof("Serving the ledger API on %s", listen)
	err = httpsrv.Run(cmd.Context(), server.HTTPServer(listen), httpsrv.ShutdownTimeout(5*time.Second))
	if errors.Is(err, context.Canceled) {
		logger.Infof("Stopped serving the ledger API")
		return nil
	}
	return err
}
