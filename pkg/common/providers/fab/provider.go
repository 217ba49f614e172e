/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"time"
)

//EndpointConfig contains endpoint network configurations
type EndpointConfig interface {
	Timeout(TimeoutType) time.Duration
	PeersConfig() []PeerConfig
	OrdererConfig() *OrdererConfig
	EventServiceConfig() *EventServiceConfig
	ChannelConfig() *ChannelConfig
}

// TimeoutType enumerates the different types of outgoing connections
type TimeoutType int

const (
	// PeerConnection connection timeout
	PeerConnection TimeoutType = iota
	// PeerResponse peer response timeout
	PeerResponse
	// OrdererConnection orderer connection timeout
	OrdererConnection
	// OrdererResponse orderer response timeout
	OrdererResponse
	// EventReg connection timeout
	EventReg
	// Query timeout
	Query
	// Execute timeout is the deadline for the commit event of a transaction
	Execute
)

// PeerConfig defines a peer configuration
type PeerConfig struct {
	Name  string
	URL   string
	MSPID string
}

// OrdererConfig defines an orderer configuration
type OrdererConfig struct {
	Name string
	URL  string
}

// EventServiceConfig defines the deliver event service configuration
type EventServiceConfig struct {
	URL string
	// ConsumerTimeout is how long the dispatcher waits for a slow subscriber.
	// A negative value drops the event, zero blocks until it is taken.
	ConsumerTimeout time.Duration
	// ReconnectInitialBackoff and ReconnectMaxBackoff bound the wait between
	// reconnection attempts to the deliver service
	ReconnectInitialBackoff time.Duration
	ReconnectMaxBackoff     time.Duration
}

// ChannelConfig provides the definition of the channel and the chaincode the
// client transacts against
type ChannelConfig struct {
	ID          string
	ChaincodeID string
	// Policy is the endorsement policy expression evaluated over the
	// proposal responses
	Policy string
}
