/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/service/dispatcher"
)

// MockEventService implements a mock event service
type MockEventService struct {
	TxStatusRegCh chan *dispatcher.TxStatusReg
	RegisterErr   error

	mtx          sync.Mutex
	unregistered []fab.Registration
}

// NewMockEventService returns a new mock event service
func NewMockEventService() *MockEventService {
	return &MockEventService{
		TxStatusRegCh: make(chan *dispatcher.TxStatusReg, 1),
	}
}

// RegisterFilteredBlockEvent registers for filtered block events.
func (m *MockEventService) RegisterFilteredBlockEvent() (fab.Registration, <-chan *fab.FilteredBlockEvent, error) {
	panic("not implemented")
}

// RegisterTxStatusEvent registers for transaction status events. The
// registration is published on TxStatusRegCh so that tests can deliver the event.
func (m *MockEventService) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	if m.RegisterErr != nil {
		return nil, nil, m.RegisterErr
	}
	eventCh := make(chan *fab.TxStatusEvent, 1)
	reg := &dispatcher.TxStatusReg{
		Eventch: eventCh,
		TxID:    txID,
	}
	m.TxStatusRegCh <- reg
	return reg, eventCh, nil
}

// Unregister records the given registration.
func (m *MockEventService) Unregister(reg fab.Registration) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.unregistered = append(m.unregistered, reg)
}

// Unregistered returns the registrations removed so far
func (m *MockEventService) Unregistered() []fab.Registration {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]fab.Registration(nil), m.unregistered...)
}
