/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledgercc

import (
	"encoding/json"
	"sort"
	"strconv"
	"testing"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
)

// memStub is a Stub over an in-memory map
type memStub struct {
	fcn   string
	args  []string
	state map[string][]byte
}

func newMemStub() *memStub {
	return &memStub{state: make(map[string][]byte)}
}

func (s *memStub) call(fcn string, args ...string) *memStub {
	s.fcn, s.args = fcn, args
	return s
}

func (s *memStub) GetFunctionAndParameters() (string, []string) { return s.fcn, s.args }

func (s *memStub) GetState(key string) ([]byte, error) { return s.state[key], nil }

func (s *memStub) PutState(key string, value []byte) error {
	s.state[key] = value
	return nil
}

func (s *memStub) GetStateByRange(startKey, endKey string) (StateIterator, error) {
	var keys []string
	for k := range s.state {
		if k >= startKey && k < endKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	it := &memIterator{}
	for _, k := range keys {
		it.kvs = append(it.kvs, &KV{Key: k, Value: s.state[k]})
	}
	return it, nil
}

func (s *memStub) snapshot() map[string]string {
	snap := make(map[string]string)
	for k, v := range s.state {
		snap[k] = string(v)
	}
	return snap
}

type memIterator struct {
	kvs []*KV
}

func (it *memIterator) HasNext() bool { return len(it.kvs) > 0 }

func (it *memIterator) Next() (*KV, error) {
	kv := it.kvs[0]
	it.kvs = it.kvs[1:]
	return kv, nil
}

func (it *memIterator) Close() error { return nil }

func seeded(t *testing.T) (*Ledger, *memStub) {
	l := &Ledger{}
	stub := newMemStub()
	res := l.Init(stub)
	require.EqualValues(t, cb.Status_SUCCESS, res.Status)
	return l, stub
}

func balanceOf(t *testing.T, stub *memStub, id string) int64 {
	a := &Account{}
	require.NoError(t, json.Unmarshal(stub.state[id], a))
	return a.Balance
}

func requireErrorCode(t *testing.T, res *pb.Response, code status.Code) {
	require.EqualValues(t, cb.Status_INTERNAL_SERVER_ERROR, res.Status)
	c, _, ok := ParseError(res.Message)
	require.True(t, ok, "message should carry a kind: %s", res.Message)
	assert.Equal(t, code, c)
}

func TestInitSeedsAccounts(t *testing.T) {
	_, stub := seeded(t)
	assert.Equal(t, `{"id":"1","name":"Jim","balance":"100"}`, string(stub.state["1"]))
	assert.Len(t, stub.state, 4)
}

func TestAddAccountAndQuery(t *testing.T) {
	l, stub := seeded(t)

	res := l.Invoke(stub.call(FcnAddAccount, "7", "Ann", "42"))
	require.EqualValues(t, cb.Status_SUCCESS, res.Status, res.Message)

	res = l.Invoke(stub.call(FcnQuery, "7"))
	require.EqualValues(t, cb.Status_SUCCESS, res.Status)
	assert.Equal(t, `{"id":"7","name":"Ann","balance":"42"}`, string(res.Payload))

	// last write wins
	res = l.Invoke(stub.call(FcnAddAccount, "7", "Bob", "1"))
	require.EqualValues(t, cb.Status_SUCCESS, res.Status)
	res = l.Invoke(stub.call(FcnQuery, "7"))
	assert.Equal(t, `{"id":"7","name":"Bob","balance":"1"}`, string(res.Payload))
}

func TestAddAccountInvalidBalance(t *testing.T) {
	l, stub := seeded(t)
	for _, balance := range []string{"-1", "abc", "1.5", ""} {
		requireErrorCode(t, l.Invoke(stub.call(FcnAddAccount, "9", "X", balance)), status.InvalidArgument)
	}
	_, ok := stub.state["9"]
	assert.False(t, ok)
}

func TestTransferConservesBalance(t *testing.T) {
	tests := []struct {
		from, amount int64
		applied      bool
	}{
		{from: 100, amount: 30, applied: true},
		{from: 100, amount: 99, applied: true},
		{from: 100, amount: 0, applied: true},
		{from: 100, amount: 100, applied: false},
		{from: 100, amount: 101, applied: false},
		{from: 0, amount: 0, applied: false},
	}

	for _, tc := range tests {
		l := &Ledger{}
		stub := newMemStub()
		require.EqualValues(t, 200, l.Invoke(stub.call(FcnAddAccount, "a", "A", strconv.FormatInt(tc.from, 10))).Status)
		require.EqualValues(t, 200, l.Invoke(stub.call(FcnAddAccount, "b", "B", "5")).Status)
		before := stub.snapshot()

		res := l.Invoke(stub.call(FcnTransfer, "a", "b", strconv.FormatInt(tc.amount, 10)))
		if tc.applied {
			require.EqualValues(t, cb.Status_SUCCESS, res.Status, res.Message)
			assert.Equal(t, tc.from-tc.amount, balanceOf(t, stub, "a"))
			assert.Equal(t, 5+tc.amount, balanceOf(t, stub, "b"))
		} else {
			requireErrorCode(t, res, status.InsufficientBalance)
			_, text, _ := ParseError(res.Message)
			assert.Equal(t, "Account doesn't have enough balance", text)
			assert.Equal(t, before, stub.snapshot())
		}
		assert.Equal(t, tc.from+5, balanceOf(t, stub, "a")+balanceOf(t, stub, "b"))
	}
}

func TestTransferFailures(t *testing.T) {
	l, stub := seeded(t)
	before := stub.snapshot()

	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "1", "99", "10")), status.NotFound)
	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "99", "1", "10")), status.NotFound)
	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "1", "2", "-5")), status.InvalidArgument)
	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "1", "2", "ten")), status.InvalidArgument)
	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "1", "1", "10")), status.InvalidArgument)
	requireErrorCode(t, l.Invoke(stub.call(FcnTransfer, "1", "2")), status.ArityError)

	assert.Equal(t, before, stub.snapshot())
}

func TestQueryNotFound(t *testing.T) {
	l, stub := seeded(t)
	res := l.Invoke(stub.call(FcnQuery, "42"))
	requireErrorCode(t, res, status.NotFound)
	assert.Equal(t, "NOT_FOUND: 42 does not exist", res.Message)

	stub.state["43"] = []byte{}
	requireErrorCode(t, l.Invoke(stub.call(FcnQuery, "43")), status.NotFound)
}

func TestQueryAll(t *testing.T) {
	l, stub := seeded(t)

	res := l.Invoke(stub.call(FcnQueryAll))
	require.EqualValues(t, cb.Status_SUCCESS, res.Status)

	var results []struct {
		Key    string
		Record Account
	}
	require.NoError(t, json.Unmarshal(res.Payload, &results))
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, SeedAccounts[i], r.Record)
		assert.Equal(t, SeedAccounts[i].ID, r.Key)
	}

	require.EqualValues(t, 200, l.Invoke(stub.call(FcnTransfer, "1", "2", "30")).Status)

	res = l.Invoke(stub.call(FcnQueryAll))
	require.NoError(t, json.Unmarshal(res.Payload, &results))
	var balances []int64
	for _, r := range results {
		balances = append(balances, r.Record.Balance)
	}
	assert.Equal(t, []int64{70, 130, 100, 100}, balances)

	// the iteration is restartable
	again := l.Invoke(stub.call(FcnQueryAll))
	assert.Equal(t, res.Payload, again.Payload)
}

func TestQueryAllRawRecords(t *testing.T) {
	l := &Ledger{}
	stub := newMemStub()
	stub.state["5"] = []byte("not json")
	stub.state["a"] = []byte(`{"outside":"range"}`)

	res := l.Invoke(stub.call(FcnQueryAll))
	require.EqualValues(t, cb.Status_SUCCESS, res.Status)
	assert.JSONEq(t, `[{"Key":"5","Record":"not json"}]`, string(res.Payload))

	empty := l.Invoke(newMemStub().call(FcnQueryAll))
	assert.Equal(t, "[]", string(empty.Payload))
}

func TestUnknownFunctionAndArity(t *testing.T) {
	l, stub := seeded(t)
	requireErrorCode(t, l.Invoke(stub.call("delete", "1")), status.UnknownFunction)
	requireErrorCode(t, l.Invoke(stub.call(FcnQuery)), status.ArityError)
	requireErrorCode(t, l.Invoke(stub.call(FcnQueryAll, "x")), status.ArityError)

	assert.NoError(t, CheckArity(FcnAddAccount, 3))
	assert.NoError(t, CheckArity("unknown", 7))
	assert.EqualError(t, CheckArity(FcnTransfer, 2), "ARITY_ERROR: Incorrect number of arguments. Expecting 3")
}

func TestParseError(t *testing.T) {
	code, text, ok := ParseError("INSUFFICIENT_BALANCE: Account doesn't have enough balance")
	assert.True(t, ok)
	assert.Equal(t, status.InsufficientBalance, code)
	assert.Equal(t, "Account doesn't have enough balance", text)

	code, text, ok = ParseError("something else")
	assert.False(t, ok)
	assert.Equal(t, status.Unknown, code)
	assert.Equal(t, "something else", text)
}
