/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// YAML renders the effective configuration, defaults included, in the same
// layout the config file is read in.
func (c *Config) YAML() ([]byte, error) {
	var peers []yaml.MapSlice
	for _, p := range c.peers {
		peers = append(peers, yaml.MapSlice{
			{Key: "name", Value: p.Name},
			{Key: "url", Value: p.URL},
			{Key: "mspid", Value: p.MSPID},
		})
	}

	doc := yaml.MapSlice{
		{Key: "client", Value: yaml.MapSlice{
			{Key: "mspid", Value: c.client.MSPID},
			{Key: "logging", Value: yaml.MapSlice{{Key: "level", Value: c.loggingSpec}}},
			{Key: "credentialStore", Value: yaml.MapSlice{{Key: "path", Value: c.client.CredentialStore.Path}}},
			{Key: "commitTimeout", Value: c.Timeout(fab.Execute).String()},
			{Key: "timeouts", Value: yaml.MapSlice{
				{Key: "peer", Value: yaml.MapSlice{
					{Key: "connection", Value: c.Timeout(fab.PeerConnection).String()},
					{Key: "response", Value: c.Timeout(fab.PeerResponse).String()},
				}},
				{Key: "orderer", Value: yaml.MapSlice{
					{Key: "connection", Value: c.Timeout(fab.OrdererConnection).String()},
					{Key: "response", Value: c.Timeout(fab.OrdererResponse).String()},
				}},
				{Key: "eventReg", Value: c.Timeout(fab.EventReg).String()},
				{Key: "query", Value: c.Timeout(fab.Query).String()},
			}},
			{Key: "retry", Value: yaml.MapSlice{
				{Key: "attempts", Value: c.retryOpts.Attempts},
				{Key: "initialBackoff", Value: c.retryOpts.InitialBackoff.String()},
				{Key: "maxBackoff", Value: c.retryOpts.MaxBackoff.String()},
				{Key: "backoffFactor", Value: c.retryOpts.BackoffFactor},
			}},
		}},
		{Key: "channel", Value: yaml.MapSlice{
			{Key: "id", Value: c.channel.ID},
			{Key: "chaincode", Value: c.channel.ChaincodeID},
			{Key: "policy", Value: c.channel.Policy},
		}},
		{Key: "peers", Value: peers},
		{Key: "orderer", Value: yaml.MapSlice{
			{Key: "name", Value: c.orderer.Name},
			{Key: "url", Value: c.orderer.URL},
		}},
		{Key: "eventService", Value: yaml.MapSlice{
			{Key: "url", Value: c.events.URL},
			{Key: "consumerTimeout", Value: c.events.ConsumerTimeout.String()},
			{Key: "reconnect", Value: yaml.MapSlice{
				{Key: "initialBackoff", Value: c.events.ReconnectInitialBackoff.String()},
				{Key: "maxBackoff", Value: c.events.ReconnectMaxBackoff.String()},
			}},
		}},
		{Key: "ca", Value: yaml.MapSlice{
			{Key: "url", Value: c.ca.URL},
			{Key: "name", Value: c.ca.CAName},
			{Key: "affiliation", Value: c.ca.Affiliation},
			{Key: "registrar", Value: yaml.MapSlice{
				{Key: "enrollId", Value: c.ca.Registrar.EnrollID},
				{Key: "enrollSecret", Value: "<redacted>"},
			}},
		}},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "rendering config failed")
	}
	return out, nil
}
