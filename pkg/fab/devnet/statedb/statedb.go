/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statedb keeps the versioned world state, the block store and the
// transaction ID index of a replica in a single bbolt file. Blocks are stored
// as protobuf filtered blocks; state values and transaction records are
// canonical CBOR.
package statedb

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
)

var logger = logging.NewLogger("ledger/devnet")

// DBFileName is the name of the database file inside the data directory
const DBFileName = "ledger.db"

var (
	stateBucket  = []byte("state")
	blocksBucket = []byte("blocks")
	txIDBucket   = []byte("txids")
	metaBucket   = []byte("meta")

	heightKey = []byte("height")
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Version is the height at which a value was written
type Version struct {
	BlockNum uint64 `cbor:"block_num"`
	TxNum    uint64 `cbor:"tx_num"`
}

// Matches reports whether a read recorded at read saw this version
func (v Version) Matches(read *kvrwset.Version) bool {
	return read != nil && read.BlockNum == v.BlockNum && read.TxNum == v.TxNum
}

// ReadVersion returns the version as it is recorded in a read set
func (v Version) ReadVersion() *kvrwset.Version {
	return &kvrwset.Version{BlockNum: v.BlockNum, TxNum: v.TxNum}
}

// VersionedValue is a state value and the height at which it was written
type VersionedValue struct {
	Value   []byte  `cbor:"value"`
	Version Version `cbor:"version"`
}

// TxRecord is the recorded result of a committed transaction
type TxRecord struct {
	TxValidationCode pb.TxValidationCode `cbor:"tx_validation_code"`
	BlockNumber      uint64              `cbor:"block_number"`
	// Envelope is the marshaled common.Envelope the transaction was ordered in
	Envelope []byte `cbor:"envelope,omitempty"`
}

// KV is a key with its versioned value
type KV struct {
	Key string
	*VersionedValue
}

// Transaction is a transaction of a block to be committed. Code carries the
// result of the checks made before commit; only VALID transactions are
// checked for duplicates and read conflicts and then applied.
type Transaction struct {
	TxID     string
	Code     pb.TxValidationCode
	RWSet    *kvrwset.KVRWSet
	Envelope []byte
}

// Reader reads committed state
type Reader interface {
	// GetState returns the value of key or nil if it does not exist
	GetState(key string) (*VersionedValue, error)
	// GetStateRange returns the keys in [startKey, endKey) in lexical order.
	// An empty endKey means no upper bound.
	GetStateRange(startKey, endKey string) ([]*KV, error)
}

// DB is the replica's persistent store
type DB struct {
	db *bolt.DB
}

// Open opens or creates the database in dir
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "creating data directory %s failed", dir)
	}

	db, err := bolt.Open(filepath.Join(dir, DBFileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening state database failed")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{stateBucket, blocksBucket, txIDBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close() // nolint: errcheck
		return nil, errors.Wrap(err, "creating buckets failed")
	}

	return &DB{db: db}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Height returns the number of blocks committed
func (d *DB) Height() (uint64, error) {
	var height uint64
	err := d.db.View(func(tx *bolt.Tx) error {
		height = readHeight(tx)
		return nil
	})
	return height, err
}

// View runs fn against a consistent snapshot of the committed state
func (d *DB) View(fn func(r Reader) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return fn(&reader{bucket: tx.Bucket(stateBucket)})
	})
}

// GetBlock returns the filtered block with the given number
func (d *DB) GetBlock(number uint64) (*pb.FilteredBlock, error) {
	var block *pb.FilteredBlock
	err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(blocksBucket).Get(blockKey(number))
		if raw == nil {
			return errors.Errorf("block %d not found", number)
		}
		block = &pb.FilteredBlock{}
		return errors.Wrapf(proto.Unmarshal(raw, block), "decoding block %d failed", number)
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// GetTransaction returns the record of a committed transaction. A
// duplicate of an earlier transaction is not recorded.
func (d *DB) GetTransaction(txID string) (*TxRecord, bool, error) {
	var record *TxRecord
	err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(txIDBucket).Get([]byte(txID))
		if raw == nil {
			return nil
		}
		record = &TxRecord{}
		return cbor.Unmarshal(raw, record)
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading transaction [%s] failed", txID)
	}
	return record, record != nil, nil
}

// TxValidationCode returns the validation code a committed transaction was
// recorded with
func (d *DB) TxValidationCode(txID string) (pb.TxValidationCode, bool, error) {
	record, found, err := d.GetTransaction(txID)
	if !found || err != nil {
		return 0, found, err
	}
	return record.TxValidationCode, true, nil
}

// CommitBlock validates the transactions of the next block for duplicate IDs
// and read conflicts and applies the writes of the valid ones. The block is
// stored and the state updated in one bbolt transaction. The block number
// is the current height.
func (d *DB) CommitBlock(channelID string, txs []*Transaction) (*pb.FilteredBlock, error) {
	var block *pb.FilteredBlock

	err := d.db.Update(func(tx *bolt.Tx) error {
		number := readHeight(tx)
		state := tx.Bucket(stateBucket)
		txIDs := tx.Bucket(txIDBucket)

		block = &pb.FilteredBlock{ChannelId: channelID, Number: number}
		inBlock := make(map[string]struct{}, len(txs))

		for txNum, t := range txs {
			code := t.Code
			_, seen := inBlock[t.TxID]
			if seen || txIDs.Get([]byte(t.TxID)) != nil {
				code = pb.TxValidationCode_DUPLICATE_TXID
			}
			if code == pb.TxValidationCode_VALID {
				var err error
				code, err = validateReads(state, t.RWSet)
				if err != nil {
					return err
				}
			}

			if code == pb.TxValidationCode_VALID {
				if err := applyWrites(state, t.RWSet, Version{BlockNum: number, TxNum: uint64(txNum)}); err != nil {
					return err
				}
			}

			if code != pb.TxValidationCode_DUPLICATE_TXID {
				inBlock[t.TxID] = struct{}{}
				raw, err := encMode.Marshal(&TxRecord{TxValidationCode: code, BlockNumber: number, Envelope: t.Envelope})
				if err != nil {
					return errors.Wrapf(err, "encoding record of [%s] failed", t.TxID)
				}
				if err := txIDs.Put([]byte(t.TxID), raw); err != nil {
					return err
				}
			}

			logger.Debugf("Transaction [%s] in block %d: %s", t.TxID, number, code)
			block.FilteredTransactions = append(block.FilteredTransactions, &pb.FilteredTransaction{
				Txid:             t.TxID,
				Type:             cb.HeaderType_ENDORSER_TRANSACTION,
				TxValidationCode: code,
			})
		}

		raw, err := proto.Marshal(block)
		if err != nil {
			return errors.Wrap(err, "encoding block failed")
		}
		if err := tx.Bucket(blocksBucket).Put(blockKey(number), raw); err != nil {
			return err
		}
		return writeHeight(tx, number+1)
	})
	if err != nil {
		return nil, errors.Wrap(err, "commit of block failed")
	}
	return block, nil
}

func validateReads(state *bolt.Bucket, rwset *kvrwset.KVRWSet) (pb.TxValidationCode, error) {
	for _, read := range rwset.GetReads() {
		current, err := getState(state, read.Key)
		if err != nil {
			return 0, err
		}
		switch {
		case current == nil && read.Version == nil:
		case current != nil && current.Version.Matches(read.Version):
		default:
			logger.Debugf("Read conflict on key [%s]", read.Key)
			return pb.TxValidationCode_MVCC_READ_CONFLICT, nil
		}
	}
	return pb.TxValidationCode_VALID, nil
}

func applyWrites(state *bolt.Bucket, rwset *kvrwset.KVRWSet, version Version) error {
	for _, w := range rwset.GetWrites() {
		if w.IsDelete {
			if err := state.Delete([]byte(w.Key)); err != nil {
				return err
			}
			continue
		}
		raw, err := encMode.Marshal(&VersionedValue{Value: w.Value, Version: version})
		if err != nil {
			return errors.Wrapf(err, "encoding value of key [%s] failed", w.Key)
		}
		if err := state.Put([]byte(w.Key), raw); err != nil {
			return err
		}
	}
	return nil
}

type reader struct {
	bucket *bolt.Bucket
}

func (r *reader) GetState(key string) (*VersionedValue, error) {
	return getState(r.bucket, key)
}

func (r *reader) GetStateRange(startKey, endKey string) ([]*KV, error) {
	var kvs []*KV
	c := r.bucket.Cursor()
	for k, v := c.Seek([]byte(startKey)); k != nil; k, v = c.Next() {
		if endKey != "" && bytes.Compare(k, []byte(endKey)) >= 0 {
			break
		}
		vv := &VersionedValue{}
		if err := cbor.Unmarshal(v, vv); err != nil {
			return nil, errors.Wrapf(err, "decoding value of key [%s] failed", k)
		}
		kvs = append(kvs, &KV{Key: string(k), VersionedValue: vv})
	}
	return kvs, nil
}

func getState(bucket *bolt.Bucket, key string) (*VersionedValue, error) {
	raw := bucket.Get([]byte(key))
	if raw == nil {
		return nil, nil
	}
	vv := &VersionedValue{}
	if err := cbor.Unmarshal(raw, vv); err != nil {
		return nil, errors.Wrapf(err, "decoding value of key [%s] failed", key)
	}
	return vv, nil
}

func readHeight(tx *bolt.Tx) uint64 {
	raw := tx.Bucket(metaBucket).Get(heightKey)
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func writeHeight(tx *bolt.Tx, height uint64) error {
	return tx.Bucket(metaBucket).Put(heightKey, blockKey(height))
}

func blockKey(number uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, number)
	return key
}
