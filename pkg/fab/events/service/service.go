/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package service implements fab.EventService on top of a single-goroutine dispatcher.
package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/service/dispatcher"
)

// stopTimeout is the time that we wait for the dispatcher to stop.
const stopTimeout = 5 * time.Second

var logger = logging.NewLogger("ledger/fab")

// Dispatcher is responsible for processing registration requests and filtered block events.
type Dispatcher interface {
	// Start starts the dispatcher, i.e. the dispatcher starts listening for requests/events
	Start() error

	// EventCh is the event channel over which to communicate with the dispatcher
	EventCh() (chan<- interface{}, error)

	// LastBlockNum returns the block number of the last block for which an event was received.
	LastBlockNum() uint64
}

// Service allows clients to register for filtered block and transaction status events.
type Service struct {
	params
	dispatcher Dispatcher
}

// New returns a new event service initialized with the given Dispatcher
func New(dispatcher Dispatcher, opts ...options.Opt) *Service {
	params := defaultParams()
	options.Apply(params, opts)

	return &Service{
		params:     *params,
		dispatcher: dispatcher,
	}
}

// Start starts the event service
func (s *Service) Start() error {
	return s.dispatcher.Start()
}

// Stop stops the event service. All registration channels are closed.
func (s *Service) Stop() {
	eventch, err := s.dispatcher.EventCh()
	if err != nil {
		logger.Warnf("Error stopping event service: %s", err)
		return
	}

	errch := make(chan error, 1)
	eventch <- dispatcher.NewStopEvent(errch)

	select {
	case err := <-errch:
		if err != nil {
			logger.Warnf("Error while stopping dispatcher: %s", err)
		}
	case <-time.After(stopTimeout):
		logger.Infof("Timed out waiting for dispatcher to stop")
	}
}

// Submit submits an event for processing
func (s *Service) Submit(event interface{}) error {
	eventch, err := s.dispatcher.EventCh()
	if err != nil {
		return errors.WithMessage(err, "Error submitting to event dispatcher")
	}
	eventch <- event

	return nil
}

// Dispatcher returns the event dispatcher
func (s *Service) Dispatcher() Dispatcher {
	return s.dispatcher
}

// RegisterFilteredBlockEvent registers for filtered block events.
func (s *Service) RegisterFilteredBlockEvent() (fab.Registration, <-chan *fab.FilteredBlockEvent, error) {
	eventch := make(chan *fab.FilteredBlockEvent, s.eventConsumerBufferSize)
	regch := make(chan fab.Registration)
	errch := make(chan error)

	if err := s.Submit(dispatcher.NewRegisterFilteredBlockEvent(eventch, regch, errch)); err != nil {
		return nil, nil, errors.WithMessage(err, "error registering for filtered block events")
	}

	select {
	case response := <-regch:
		return response, eventch, nil
	case err := <-errch:
		return nil, nil, err
	}
}

// RegisterTxStatusEvent registers for transaction status events. Only one
// registration may exist for a given transaction ID at a time.
func (s *Service) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	if txID == "" {
		return nil, nil, errors.New("txID must be provided")
	}

	// Each transaction resolves once; one slot is enough
	eventch := make(chan *fab.TxStatusEvent, 1)
	regch := make(chan fab.Registration)
	errch := make(chan error)

	if err := s.Submit(dispatcher.NewRegisterTxStatusEvent(txID, eventch, regch, errch)); err != nil {
		return nil, nil, errors.WithMessage(err, "error registering for Tx Status events")
	}

	select {
	case response := <-regch:
		return response, eventch, nil
	case err := <-errch:
		return nil, nil, err
	}
}

// RegisterConnectionEvent registers for connection events
func (s *Service) RegisterConnectionEvent() (fab.Registration, <-chan *fab.ConnectionEvent, error) {
	eventch := make(chan *fab.ConnectionEvent, s.eventConsumerBufferSize)
	regch := make(chan fab.Registration)
	errch := make(chan error)

	if err := s.Submit(dispatcher.NewRegisterConnectionEvent(eventch, regch, errch)); err != nil {
		return nil, nil, errors.WithMessage(err, "error registering for connection events")
	}

	select {
	case response := <-regch:
		return response, eventch, nil
	case err := <-errch:
		return nil, nil, err
	}
}

// Unregister unregisters the given registration.
// - reg is the registration handle that was returned from one of the RegisterXXX functions
func (s *Service) Unregister(reg fab.Registration) {
	if err := s.Submit(dispatcher.NewUnregisterEvent(reg)); err != nil {
		logger.Warnf("Error unregistering: %s", err)
	}
}

// RegistrationInfo returns the counts of the current registrations
func (s *Service) RegistrationInfo() (*dispatcher.RegistrationInfo, error) {
	regInfoCh := make(chan *dispatcher.RegistrationInfo, 1)
	if err := s.Submit(dispatcher.NewRegistrationInfoEvent(regInfoCh)); err != nil {
		return nil, err
	}

	select {
	case regInfo := <-regInfoCh:
		return regInfo, nil
	case <-time.After(stopTimeout):
		return nil, errors.New("timed out waiting for registration info")
	}
}
