/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statedb

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelID = "mychannel"

func openTestDB(t *testing.T) *DB {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeTx(txID string, reads []*kvrwset.KVRead, kvs ...string) *Transaction {
	rwset := &kvrwset.KVRWSet{Reads: reads}
	for i := 0; i+1 < len(kvs); i += 2 {
		rwset.Writes = append(rwset.Writes, &kvrwset.KVWrite{Key: kvs[i], Value: []byte(kvs[i+1])})
	}
	return &Transaction{TxID: txID, RWSet: rwset, Envelope: []byte("env-" + txID)}
}

func readState(t *testing.T, db *DB, key string) *VersionedValue {
	var vv *VersionedValue
	require.NoError(t, db.View(func(r Reader) error {
		var err error
		vv, err = r.GetState(key)
		return err
	}))
	return vv
}

func TestCommitBlock(t *testing.T) {
	db := openTestDB(t)

	height, err := db.Height()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)

	block, err := db.CommitBlock(channelID, []*Transaction{writeTx("tx0", nil, "1", "a", "2", "b")})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), block.Number)
	require.Len(t, block.FilteredTransactions, 1)
	assert.Equal(t, pb.TxValidationCode_VALID, block.FilteredTransactions[0].TxValidationCode)

	vv := readState(t, db, "1")
	require.NotNil(t, vv)
	assert.Equal(t, []byte("a"), vv.Value)
	assert.Equal(t, Version{BlockNum: 0, TxNum: 0}, vv.Version)
	assert.Nil(t, readState(t, db, "3"))

	height, err = db.Height()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	stored, err := db.GetBlock(0)
	require.NoError(t, err)
	assert.True(t, proto.Equal(block, stored))
	assert.Equal(t, "mychannel", stored.ChannelId)
	assert.Equal(t, "tx0", stored.FilteredTransactions[0].Txid)

	_, err = db.GetBlock(1)
	assert.Error(t, err)

	code, found, err := db.TxValidationCode("tx0")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, pb.TxValidationCode_VALID, code)

	record, found, err := db.GetTransaction("tx0")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, &TxRecord{TxValidationCode: pb.TxValidationCode_VALID, BlockNumber: 0, Envelope: []byte("env-tx0")}, record)

	_, found, err = db.GetTransaction("unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadConflict(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CommitBlock(channelID, []*Transaction{writeTx("tx0", nil, "1", "a")})
	require.NoError(t, err)

	read := []*kvrwset.KVRead{{Key: "1", Version: Version{BlockNum: 0, TxNum: 0}.ReadVersion()}}

	// both transactions read version 0:0 of key 1, the second one conflicts
	block, err := db.CommitBlock(channelID, []*Transaction{
		writeTx("tx1", read, "1", "b"),
		writeTx("tx2", read, "1", "c"),
	})
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_VALID, block.FilteredTransactions[0].TxValidationCode)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, block.FilteredTransactions[1].TxValidationCode)

	vv := readState(t, db, "1")
	assert.Equal(t, []byte("b"), vv.Value)
	assert.Equal(t, Version{BlockNum: 1, TxNum: 0}, vv.Version)

	// a read of a missing key conflicts once the key exists
	block, err = db.CommitBlock(channelID, []*Transaction{writeTx("tx3", []*kvrwset.KVRead{{Key: "1"}}, "1", "d")})
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, block.FilteredTransactions[0].TxValidationCode)
}

func TestDuplicateTxID(t *testing.T) {
	db := openTestDB(t)
	block, err := db.CommitBlock(channelID, []*Transaction{
		writeTx("tx1", nil, "1", "a"),
		writeTx("tx1", nil, "1", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_VALID, block.FilteredTransactions[0].TxValidationCode)
	assert.Equal(t, pb.TxValidationCode_DUPLICATE_TXID, block.FilteredTransactions[1].TxValidationCode)

	block, err = db.CommitBlock(channelID, []*Transaction{writeTx("tx1", nil, "1", "c")})
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_DUPLICATE_TXID, block.FilteredTransactions[0].TxValidationCode)
	assert.Equal(t, []byte("a"), readState(t, db, "1").Value)

	code, _, err := db.TxValidationCode("tx1")
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_VALID, code)
}

func TestInvalidTransactionNotApplied(t *testing.T) {
	db := openTestDB(t)
	tx := writeTx("tx1", nil, "1", "a")
	tx.Code = pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE

	block, err := db.CommitBlock(channelID, []*Transaction{tx})
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE, block.FilteredTransactions[0].TxValidationCode)
	assert.Nil(t, readState(t, db, "1"))
}

func TestGetStateRange(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CommitBlock(channelID, []*Transaction{writeTx("tx0", nil, "1", "a", "10", "b", "2", "c", "99999", "d", "0", "e")})
	require.NoError(t, err)

	var keys []string
	require.NoError(t, db.View(func(r Reader) error {
		kvs, err := r.GetStateRange("1", "99999")
		for _, kv := range kvs {
			keys = append(keys, kv.Key)
		}
		return err
	}))
	assert.Equal(t, []string{"1", "10", "2"}, keys)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	_, err = db.CommitBlock(channelID, []*Transaction{writeTx("tx0", nil, "1", "a")})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	height, err := db.Height()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
	assert.Equal(t, []byte("a"), readState(t, db, "1").Value)
}

func TestVersionMatches(t *testing.T) {
	v := Version{BlockNum: 3, TxNum: 1}
	assert.True(t, v.Matches(&kvrwset.Version{BlockNum: 3, TxNum: 1}))
	assert.False(t, v.Matches(&kvrwset.Version{BlockNum: 3}))
	assert.False(t, v.Matches(nil))
	assert.True(t, v.Matches(v.ReadVersion()))
}
