/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"math"
	"reflect"
	"sync/atomic"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

var logger = logging.NewLogger("ledger/fab")

const (
	dispatcherStateInitial = iota
	dispatcherStateStarted
	dispatcherStateStopped
)

// Handler is the handler for a given event type.
type Handler func(Event)

// Dispatcher is responsible for handling all events, including connection and registration events originating from the client,
// and filtered block events originating from the deliver service. All events are processed in a single Go routine
// in order to avoid any race conditions and to ensure that events are processed in the order in which they are received.
// This also avoids the need for synchronization.
// The lastBlockNum member MUST be first to ensure it stays 64-bit aligned on 32-bit machines.
type Dispatcher struct {
	lastBlockNum uint64 // Must be first, do not move
	params
	state                      int32
	eventch                    chan interface{}
	filteredBlockRegistrations []*FilteredBlockReg
	connectionRegistrations    []*ConnectionReg
	txRegistrations            map[string]*TxStatusReg
	handlers                   map[reflect.Type]Handler
}

// New creates a new Dispatcher.
func New(opts ...options.Opt) *Dispatcher {
	logger.Debug("Creating new dispatcher.")

	params := defaultParams()
	options.Apply(params, opts)

	return &Dispatcher{
		params:          *params,
		handlers:        make(map[reflect.Type]Handler),
		eventch:         make(chan interface{}, params.eventConsumerBufferSize),
		txRegistrations: make(map[string]*TxStatusReg),
		state:           dispatcherStateInitial,
		lastBlockNum:    math.MaxUint64,
	}
}

// RegisterHandlers registers all of the handlers by event type
func (ed *Dispatcher) RegisterHandlers() {
	ed.RegisterHandler(&RegisterTxStatusEvent{}, ed.handleRegisterTxStatusEvent)
	ed.RegisterHandler(&RegisterFilteredBlockEvent{}, ed.handleRegisterFilteredBlockEvent)
	ed.RegisterHandler(&RegisterConnectionEvent{}, ed.handleRegisterConnectionEvent)
	ed.RegisterHandler(&UnregisterEvent{}, ed.handleUnregisterEvent)
	ed.RegisterHandler(&StopEvent{}, ed.HandleStopEvent)
	ed.RegisterHandler(&RegistrationInfoEvent{}, ed.handleRegistrationInfoEvent)
	ed.RegisterHandler(&fab.FilteredBlockEvent{}, ed.handleFilteredBlockEvent)
	ed.RegisterHandler(&fab.ConnectionEvent{}, ed.handleConnectionEvent)
}

// RegisterHandler registers an event handler
func (ed *Dispatcher) RegisterHandler(t interface{}, h Handler) {
	htype := reflect.TypeOf(t)
	if _, ok := ed.handlers[htype]; !ok {
		logger.Debugf("Registering handler for %s on dispatcher %T", htype, ed)
		ed.handlers[htype] = h
	} else {
		logger.Debugf("Cannot register handler %s on dispatcher %T since it's already registered", htype, ed)
	}
}

// EventCh returns the channel to which events may be posted
func (ed *Dispatcher) EventCh() (chan<- interface{}, error) {
	state := ed.getState()
	if state == dispatcherStateStarted {
		return ed.eventch, nil
	}
	return nil, errors.Errorf("dispatcher not started - Current state [%d]", state)
}

// Start starts dispatching events as they arrive. All events are processed in
// a single Go routine in order to avoid any race conditions
func (ed *Dispatcher) Start() error {
	if !ed.setState(dispatcherStateInitial, dispatcherStateStarted) {
		return errors.New("cannot start dispatcher since it's not in its initial state")
	}

	ed.RegisterHandlers()

	go func() {
		for {
			if ed.getState() == dispatcherStateStopped {
				break
			}

			e, ok := <-ed.eventch
			if !ok {
				break
			}

			if handler, ok := ed.handlers[reflect.TypeOf(e)]; ok {
				handler(e)
			} else {
				logger.Errorf("Handler not found for: %s", reflect.TypeOf(e))
			}
		}
		logger.Debug("Exiting event dispatcher")
	}()
	return nil
}

// LastBlockNum returns the block number of the last block for which an event was received.
// math.MaxUint64 is returned if no block has been received.
func (ed *Dispatcher) LastBlockNum() uint64 {
	return atomic.LoadUint64(&ed.lastBlockNum)
}

// updateLastBlockNum records blockNum as the last block received. Blocks must arrive in order.
func (ed *Dispatcher) updateLastBlockNum(blockNum uint64) error {
	lastBlockNum := atomic.LoadUint64(&ed.lastBlockNum)
	if lastBlockNum == math.MaxUint64 || blockNum > lastBlockNum {
		atomic.StoreUint64(&ed.lastBlockNum, blockNum)
		logger.Debugf("Updated last block received to %d", blockNum)
		return nil
	}
	return errors.Errorf("Expecting a block number greater than %d but received block number %d", lastBlockNum, blockNum)
}

// HandleStopEvent stops the dispatcher and unregisters all event registration.
// The Dispatcher is no longer usable.
func (ed *Dispatcher) HandleStopEvent(e Event) {
	event := e.(*StopEvent)

	logger.Debugf("Stopping dispatcher...")
	if !ed.setState(dispatcherStateStarted, dispatcherStateStopped) {
		logger.Warn("Cannot stop event dispatcher since it's already stopped.")
		event.ErrCh <- errors.New("dispatcher already stopped")
		return
	}

	// Remove all registrations and close the associated event channels
	// so that the client is notified that the registration has been removed
	ed.clearRegistrations()

	event.ErrCh <- nil
}

func (ed *Dispatcher) clearRegistrations() {
	for _, reg := range ed.filteredBlockRegistrations {
		close(reg.Eventch)
	}
	ed.filteredBlockRegistrations = nil

	for _, reg := range ed.connectionRegistrations {
		close(reg.Eventch)
	}
	ed.connectionRegistrations = nil

	for _, reg := range ed.txRegistrations {
		logger.Debugf("Closing TX registration event channel for TxID [%s].", reg.TxID)
		close(reg.Eventch)
	}
	ed.txRegistrations = make(map[string]*TxStatusReg)
}

func (ed *Dispatcher) handleRegisterFilteredBlockEvent(e Event) {
	event := e.(*RegisterFilteredBlockEvent)
	ed.filteredBlockRegistrations = append(ed.filteredBlockRegistrations, event.Reg)
	event.RegCh <- event.Reg
}

func (ed *Dispatcher) handleRegisterConnectionEvent(e Event) {
	event := e.(*RegisterConnectionEvent)
	ed.connectionRegistrations = append(ed.connectionRegistrations, event.Reg)
	event.RegCh <- event.Reg
}

func (ed *Dispatcher) handleRegisterTxStatusEvent(e Event) {
	event := e.(*RegisterTxStatusEvent)

	if _, exists := ed.txRegistrations[event.Reg.TxID]; exists {
		event.ErrCh <- errors.Errorf("registration already exists for TX ID [%s]", event.Reg.TxID)
		return
	}
	ed.txRegistrations[event.Reg.TxID] = event.Reg
	event.RegCh <- event.Reg
}

func (ed *Dispatcher) handleUnregisterEvent(e Event) {
	event := e.(*UnregisterEvent)

	var err error
	switch registration := event.Reg.(type) {
	case *FilteredBlockReg:
		err = ed.unregisterFilteredBlockEvents(registration)
	case *ConnectionReg:
		err = ed.unregisterConnectionEvents(registration)
	case *TxStatusReg:
		err = ed.unregisterTXEvents(registration)
	default:
		err = errors.Errorf("Unsupported registration type: %+v", reflect.TypeOf(registration))
	}
	if err != nil {
		logger.Warnf("Error in unregister: %s", err)
	}
}

func (ed *Dispatcher) unregisterFilteredBlockEvents(registration *FilteredBlockReg) error {
	for i, reg := range ed.filteredBlockRegistrations {
		if reg == registration {
			ed.filteredBlockRegistrations = append(ed.filteredBlockRegistrations[:i], ed.filteredBlockRegistrations[i+1:]...)
			close(reg.Eventch)
			return nil
		}
	}
	return errors.New("the provided registration is invalid")
}

func (ed *Dispatcher) unregisterConnectionEvents(registration *ConnectionReg) error {
	for i, reg := range ed.connectionRegistrations {
		if reg == registration {
			ed.connectionRegistrations = append(ed.connectionRegistrations[:i], ed.connectionRegistrations[i+1:]...)
			close(reg.Eventch)
			return nil
		}
	}
	return errors.New("the provided registration is invalid")
}

func (ed *Dispatcher) unregisterTXEvents(registration *TxStatusReg) error {
	reg, ok := ed.txRegistrations[registration.TxID]
	if !ok || reg != registration {
		return errors.New("the provided registration is invalid")
	}

	logger.Debugf("Unregistering Tx Status event for TxID [%s]...", registration.TxID)
	close(reg.Eventch)
	delete(ed.txRegistrations, registration.TxID)
	return nil
}

func (ed *Dispatcher) handleRegistrationInfoEvent(e Event) {
	evt := e.(*RegistrationInfoEvent)

	regInfo := &RegistrationInfo{
		NumFilteredBlockRegistrations: len(ed.filteredBlockRegistrations),
		NumTxStatusRegistrations:      len(ed.txRegistrations),
	}
	regInfo.TotalRegistrations = regInfo.NumFilteredBlockRegistrations + regInfo.NumTxStatusRegistrations

	evt.RegInfoCh <- regInfo
}

func (ed *Dispatcher) handleFilteredBlockEvent(e Event) {
	evt := e.(*fab.FilteredBlockEvent)
	ed.HandleFilteredBlock(evt.FilteredBlock, evt.SourceURL)
}

func (ed *Dispatcher) handleConnectionEvent(e Event) {
	evt := e.(*fab.ConnectionEvent)
	if evt.Connected {
		logger.Debugf("Event client connected")
	} else {
		logger.Warnf("Event client disconnected: %v", evt.Err)
	}
	for _, reg := range ed.connectionRegistrations {
		send(ed.eventConsumerTimeout, reg.Eventch, evt, "connection")
	}
}

// HandleFilteredBlock publishes the filtered block to the filtered block registrations
// and a status event to each registered transaction in the block
func (ed *Dispatcher) HandleFilteredBlock(fblock *pb.FilteredBlock, sourceURL string) {
	if fblock == nil {
		logger.Warn("Filtered block is nil. Event will not be published")
		return
	}

	logger.Debugf("Handling filtered block event - Block #%d", fblock.Number)

	if err := ed.updateLastBlockNum(fblock.Number); err != nil {
		logger.Error(err.Error())
		return
	}

	for _, reg := range ed.filteredBlockRegistrations {
		send(ed.eventConsumerTimeout, reg.Eventch, NewFilteredBlockEvent(fblock, sourceURL), "filtered block")
	}

	for _, tx := range fblock.FilteredTransactions {
		reg, ok := ed.txRegistrations[tx.Txid]
		if !ok {
			continue
		}
		logger.Debugf("Sending Tx Status event for TxID [%s] to registrant...", tx.Txid)
		send(ed.eventConsumerTimeout, reg.Eventch, NewTxStatusEvent(tx.Txid, tx.TxValidationCode, fblock.Number, sourceURL), "Tx Status")
	}
}

// send delivers event to eventch honouring the consumer timeout
func send[T any](timeout time.Duration, eventch chan<- T, event T, kind string) {
	switch {
	case timeout < 0:
		select {
		case eventch <- event:
		default:
			logger.Warnf("Unable to send to %s event channel.", kind)
		}
	case timeout == 0:
		eventch <- event
	default:
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case eventch <- event:
		case <-t.C:
			logger.Warnf("Timed out sending %s event.", kind)
		}
	}
}

func (ed *Dispatcher) getState() int32 {
	return atomic.LoadInt32(&ed.state)
}

func (ed *Dispatcher) setState(expectedState, newState int32) bool {
	return atomic.CompareAndSwapInt32(&ed.state, expectedState, newState)
}
