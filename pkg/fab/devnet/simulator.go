/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"sort"

	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/statedb"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

// simulator executes chaincode against a committed state snapshot without
// changing it. It records the version of every key read and buffers writes,
// producing the read-write set of the invocation.
type simulator struct {
	state  statedb.Reader
	fcn    string
	args   []string
	reads  map[string]*kvrwset.Version
	writes map[string][]byte
}

func newSimulator(state statedb.Reader, fcn string, args [][]byte) *simulator {
	strArgs := make([]string, len(args))
	for i, a := range args {
		strArgs[i] = string(a)
	}
	return &simulator{
		state:  state,
		fcn:    fcn,
		args:   strArgs,
		reads:  make(map[string]*kvrwset.Version),
		writes: make(map[string][]byte),
	}
}

func (s *simulator) GetFunctionAndParameters() (string, []string) {
	return s.fcn, s.args
}

func (s *simulator) GetState(key string) ([]byte, error) {
	if value, ok := s.writes[key]; ok {
		return value, nil
	}

	vv, err := s.state.GetState(key)
	if err != nil {
		return nil, err
	}
	if vv == nil {
		s.recordRead(key, nil)
		return nil, nil
	}
	s.recordRead(key, vv.Version.ReadVersion())
	return vv.Value, nil
}

func (s *simulator) PutState(key string, value []byte) error {
	if key == "" {
		return errors.New("key must not be empty")
	}
	s.writes[key] = value
	return nil
}

// GetStateByRange returns the committed keys in the range. Writes of the
// running invocation are not visible to range queries.
func (s *simulator) GetStateByRange(startKey, endKey string) (ledgercc.StateIterator, error) {
	kvs, err := s.state.GetStateRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	results := make([]*ledgercc.KV, len(kvs))
	for i, kv := range kvs {
		s.recordRead(kv.Key, kv.Version.ReadVersion())
		results[i] = &ledgercc.KV{Key: kv.Key, Value: kv.Value}
	}
	return &iterator{results: results}, nil
}

func (s *simulator) recordRead(key string, version *kvrwset.Version) {
	if _, ok := s.reads[key]; !ok {
		s.reads[key] = version
	}
}

// rwSet returns the read-write set sorted by key
func (s *simulator) rwSet() *kvrwset.KVRWSet {
	rwset := &kvrwset.KVRWSet{}
	for _, key := range sortedKeys(s.reads) {
		rwset.Reads = append(rwset.Reads, &kvrwset.KVRead{Key: key, Version: s.reads[key]})
	}
	for _, key := range sortedKeys(s.writes) {
		rwset.Writes = append(rwset.Writes, &kvrwset.KVWrite{Key: key, Value: s.writes[key]})
	}
	return rwset
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type iterator struct {
	results []*ledgercc.KV
	next    int
}

func (it *iterator) HasNext() bool {
	return it.next < len(it.results)
}

func (it *iterator) Next() (*ledgercc.KV, error) {
	if !it.HasNext() {
		return nil, errors.New("no more results")
	}
	kv := it.results[it.next]
	it.next++
	return kv, nil
}

func (it *iterator) Close() error {
	return nil
}
