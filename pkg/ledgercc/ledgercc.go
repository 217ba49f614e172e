/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledgercc is the account ledger chaincode. Every replica executes it
// against its own world state; it must therefore be deterministic.
//
// Accounts are stored as JSON under their id:
//
//	{"id":"1","name":"Jim","balance":"100"}
package ledgercc

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"

	pb "github.com/hyperledger/fabric-protos-go/peer"
)

var logger = logging.NewLogger("ledger/cc")

// Function names
const (
	FcnAddAccount = "addAccount"
	FcnTransfer   = "transfer"
	FcnQuery      = "query"
	FcnQueryAll   = "queryAll"
)

// Arity is the exact number of arguments each function takes
var Arity = map[string]int{
	FcnAddAccount: 3,
	FcnTransfer:   3,
	FcnQuery:      1,
	FcnQueryAll:   0,
}

// queryAll scans this key range
const (
	rangeStartKey = "1"
	rangeEndKey   = "99999"
)

// Account is the ledger record
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance,string"`
}

// QueryResult is one element of the queryAll result. Record holds the
// account, or the raw stored string when it is not valid JSON.
type QueryResult struct {
	Key    string
	Record interface{}
}

// SeedAccounts are written by Init
var SeedAccounts = []Account{
	{ID: "1", Name: "Jim", Balance: 100},
	{ID: "2", Name: "Moly", Balance: 100},
	{ID: "3", Name: "Poly", Balance: 100},
	{ID: "4", Name: "George", Balance: 100},
}

// Ledger implements the account ledger chaincode
type Ledger struct{}

// Init seeds the ledger with the initial accounts
func (l *Ledger) Init(stub Stub) *pb.Response {
	for _, a := range SeedAccounts {
		if err := putAccount(stub, &a); err != nil {
			return Error(err.Error())
		}
		logger.Debugf("Added account %s", a.ID)
	}
	return Success([]byte("success"))
}

// Invoke dispatches the invoked function
func (l *Ledger) Invoke(stub Stub) *pb.Response {
	fcn, args := stub.GetFunctionAndParameters()

	var handler func(Stub, []string) ([]byte, error)
	switch fcn {
	case FcnAddAccount:
		handler = l.addAccount
	case FcnTransfer:
		handler = l.transfer
	case FcnQuery:
		handler = l.query
	case FcnQueryAll:
		handler = l.queryAll
	default:
		logger.Warnf("no function of name %s found", fcn)
		return Error(NewError(status.UnknownFunction, "Received unknown function %s invocation", fcn).Error())
	}

	if err := CheckArity(fcn, len(args)); err != nil {
		return Error(err.Error())
	}

	payload, err := handler(stub, args)
	if err != nil {
		logger.Debugf("%s failed: %s", fcn, err)
		return Error(err.Error())
	}
	return Success(payload)
}

// CheckArity returns an ArityError if args does not fit fcn. Unknown
// functions are not checked.
func CheckArity(fcn string, args int) error {
	want, ok := Arity[fcn]
	if !ok || want == args {
		return nil
	}
	if fcn == FcnQuery {
		return NewError(status.ArityError, "Incorrect number of arguments. Expecting account id: ex 1")
	}
	return NewError(status.ArityError, "Incorrect number of arguments. Expecting %d", want)
}

func (l *Ledger) addAccount(stub Stub, args []string) ([]byte, error) {
	balance, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || balance < 0 {
		return nil, NewError(status.InvalidArgument, "balance must be a non-negative integer: %s", args[2])
	}

	// an existing account with the same id is replaced
	return nil, putAccount(stub, &Account{ID: args[0], Name: args[1], Balance: balance})
}

func (l *Ledger) transfer(stub Stub, args []string) ([]byte, error) {
	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || amount < 0 {
		return nil, NewError(status.InvalidArgument, "amount must be a non-negative integer: %s", args[2])
	}
	if args[0] == args[1] {
		return nil, NewError(status.InvalidArgument, "cannot transfer from account %s to itself", args[0])
	}

	from, err := getAccount(stub, args[0])
	if err != nil {
		return nil, err
	}
	to, err := getAccount(stub, args[1])
	if err != nil {
		return nil, err
	}

	if from.Balance <= amount {
		return nil, NewError(status.InsufficientBalance, "Account doesn't have enough balance")
	}
	if to.Balance > math.MaxInt64-amount {
		return nil, NewError(status.InvalidArgument, "balance of account %s would overflow", to.ID)
	}

	logger.Debugf("Transfer balance:%d from:%s to:%s", amount, from.ID, to.ID)
	from.Balance -= amount
	to.Balance += amount

	if err := putAccount(stub, from); err != nil {
		return nil, err
	}
	return nil, putAccount(stub, to)
}

func (l *Ledger) query(stub Stub, args []string) ([]byte, error) {
	value, err := stub.GetState(args[0])
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, NewError(status.NotFound, "%s does not exist", args[0])
	}
	return value, nil
}

func (l *Ledger) queryAll(stub Stub, args []string) ([]byte, error) {
	iter, err := stub.GetStateByRange(rangeStartKey, rangeEndKey)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	results := []QueryResult{}
	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if len(kv.Value) == 0 {
			continue
		}

		var record interface{}
		if json.Valid(kv.Value) {
			record = json.RawMessage(kv.Value)
		} else {
			record = string(kv.Value)
		}
		results = append(results, QueryResult{Key: kv.Key, Record: record})
	}
	return json.Marshal(results)
}

func getAccount(stub Stub, id string) (*Account, error) {
	value, err := stub.GetState(id)
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, NewError(status.NotFound, "%s does not exist", id)
	}
	account := &Account{}
	if err := json.Unmarshal(value, account); err != nil {
		return nil, NewError(status.InvalidArgument, "account %s is not a valid record", id)
	}
	return account, nil
}

func putAccount(stub Stub, a *Account) error {
	value, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return stub.PutState(a.ID, value)
}
