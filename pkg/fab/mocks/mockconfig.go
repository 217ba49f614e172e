/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"time"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// MockConfig is a fab.EndpointConfig with settable values
type MockConfig struct {
	Timeouts     map[fab.TimeoutType]time.Duration
	Peers        []fab.PeerConfig
	Orderer      *fab.OrdererConfig
	EventService *fab.EventServiceConfig
	Channel      *fab.ChannelConfig
}

// NewMockEndpointConfig returns a config pointing at the default local endpoints
func NewMockEndpointConfig() *MockConfig {
	return &MockConfig{
		Timeouts: map[fab.TimeoutType]time.Duration{
			fab.PeerConnection:    time.Second,
			fab.PeerResponse:      5 * time.Second,
			fab.OrdererConnection: time.Second,
			fab.OrdererResponse:   5 * time.Second,
			fab.EventReg:          time.Second,
			fab.Query:             5 * time.Second,
			fab.Execute:           3 * time.Second,
		},
		Peers:   []fab.PeerConfig{{Name: "peer0.org1.example.com", URL: "localhost:7051", MSPID: "Org1MSP"}},
		Orderer: &fab.OrdererConfig{Name: "orderer.example.com", URL: "localhost:7050"},
		EventService: &fab.EventServiceConfig{
			URL:                     "localhost:7053",
			ConsumerTimeout:         500 * time.Millisecond,
			ReconnectInitialBackoff: 10 * time.Millisecond,
			ReconnectMaxBackoff:     100 * time.Millisecond,
		},
		Channel: &fab.ChannelConfig{ID: "mychannel", ChaincodeID: "ledgerCC", Policy: "responses >= 1 && status == 200"},
	}
}

// Timeout returns the configured timeout for the given type
func (c *MockConfig) Timeout(t fab.TimeoutType) time.Duration {
	return c.Timeouts[t]
}

// PeersConfig returns the peers
func (c *MockConfig) PeersConfig() []fab.PeerConfig {
	return c.Peers
}

// OrdererConfig returns the orderer
func (c *MockConfig) OrdererConfig() *fab.OrdererConfig {
	return c.Orderer
}

// EventServiceConfig returns the event service configuration
func (c *MockConfig) EventServiceConfig() *fab.EventServiceConfig {
	return c.EventService
}

// ChannelConfig returns the channel configuration
func (c *MockConfig) ChannelConfig() *fab.ChannelConfig {
	return c.Channel
}
