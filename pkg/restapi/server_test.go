/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/gateway"
	"github.com/sharad-develop/fabric-node-ledger/pkg/ledgercc"
)

// fakeGateway records the arguments of the last call and answers with its fields
type fakeGateway struct {
	args []string

	credential *gateway.Credential
	registered string
	outcome    *gateway.Outcome
	record     []byte
	results    []ledgercc.QueryResult
	txStatus   *gateway.TransactionStatus
	err        error
}

func (f *fakeGateway) EnrollAdmin(username, password string) (*gateway.Credential, error) {
	f.args = []string{username, password}
	return f.credential, f.err
}

func (f *fakeGateway) RegisterUser(username string) (string, error) {
	f.args = []string{username}
	return f.registered, f.err
}

func (f *fakeGateway) AddAccount(username, id, name, balance string) (*gateway.Outcome, error) {
	f.args = []string{username, id, name, balance}
	return f.outcome, f.err
}

func (f *fakeGateway) Transfer(username, fromID, toID, amount string) (*gateway.Outcome, error) {
	f.args = []string{username, fromID, toID, amount}
	return f.outcome, f.err
}

func (f *fakeGateway) Query(username, id string) ([]byte, error) {
	f.args = []string{username, id}
	return f.record, f.err
}

func (f *fakeGateway) QueryAll(username string) ([]ledgercc.QueryResult, error) {
	f.args = []string{username}
	return f.results, f.err
}

func (f *fakeGateway) Transaction(username, txID string) (*gateway.TransactionStatus, error) {
	f.args = []string{username, txID}
	return f.txStatus, f.err
}

func newTestServer(t *testing.T, gw Gateway, opts ...Option) *httptest.Server {
	s, err := New(gw, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, []byte) {
	resp, err := http.Post(srv.URL+path, applicationJSON, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestEnrollAdmin(t *testing.T) {
	gw := &fakeGateway{credential: &gateway.Credential{Name: "admin", MSPID: "Org1MSP"}}
	srv := newTestServer(t, gw)

	resp, body := post(t, srv, "/api/enroll/admin", `{"username":"admin","password":"adminpw"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"admin", "adminpw"}, gw.args)

	credential := &gateway.Credential{}
	require.NoError(t, json.Unmarshal(body, credential))
	assert.Equal(t, "admin", credential.Name)
}

func TestEnrollUser(t *testing.T) {
	gw := &fakeGateway{registered: gateway.UserEnrolled}
	srv := newTestServer(t, gw)

	resp, body := post(t, srv, "/api/enroll/user", `{"username":"user1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gateway.UserEnrolled, string(body))

	gw.registered = gateway.UserEnrollmentFailed
	gw.err = status.New(status.IdentityClientStatus, status.IdentityError.ToInt32(), "registrar admin is not enrolled", nil)
	resp, body = post(t, srv, "/api/enroll/user", `{"username":"user1"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, gateway.UserEnrollmentFailed, string(body))
}

func TestAddAccountAcceptsNumbers(t *testing.T) {
	gw := &fakeGateway{outcome: &gateway.Outcome{Status: invoke.Committed, EventStatus: "VALID", TxID: "abc"}}
	srv := newTestServer(t, gw)

	resp, body := post(t, srv, "/api/ledger/addaccount", `{"username":"user1","account":{"id":5,"name":"Ann","balance":"10"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user1", "5", "Ann", "10"}, gw.args)
	assert.JSONEq(t, `{"status":"COMMITTED","event_status":"VALID","tx_id":"abc"}`, string(body))
}

func TestTransferTimeout(t *testing.T) {
	gw := &fakeGateway{outcome: &gateway.Outcome{
		Status:      invoke.Timeout,
		EventStatus: "TIMEOUT",
		TxID:        "abc",
		Message:     invoke.TimeoutMessage,
	}}
	srv := newTestServer(t, gw)

	resp, body := post(t, srv, "/api/ledger/transfer", `{"username":"user1","transfer":{"from":"1","to":"2","balance":30}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user1", "1", "2", "30"}, gw.args)
	assert.JSONEq(t, `{"status":"TIMEOUT","event_status":"TIMEOUT","tx_id":"abc","message":"status unknown - re-query before retrying"}`, string(body))
}

func TestTransferRejectedLocally(t *testing.T) {
	gw := &fakeGateway{err: status.New(status.ClientStatus, status.ArityError.ToInt32(), "Incorrect number of arguments", nil)}
	srv := newTestServer(t, gw)

	resp, _ := post(t, srv, "/api/ledger/transfer", `{"username":"user1","transfer":{"from":"1"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuery(t *testing.T) {
	gw := &fakeGateway{record: []byte(`{"id":"1","name":"Jim","balance":"100"}`)}
	srv := newTestServer(t, gw)

	resp, body := post(t, srv, "/api/ledger/query", `{"username":"user1","account":{"id":"1"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user1", "1"}, gw.args)
	assert.JSONEq(t, `{"id":"1","name":"Jim","balance":"100"}`, string(body))

	gw.err = errors.WithMessage(status.NewFromChaincodeError(status.NotFound, "42 does not exist"), "Failed to evaluate query")
	resp, body = post(t, srv, "/api/ledger/query", `{"username":"user1","account":{"id":"42"}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "42 does not exist")

	gw.err = status.New(status.IdentityClientStatus, status.IdentityError.ToInt32(), "Failed to get nobody", nil)
	resp, _ = post(t, srv, "/api/ledger/query", `{"username":"nobody","account":{"id":"1"}}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAccounts(t *testing.T) {
	gw := &fakeGateway{results: []ledgercc.QueryResult{{Key: "1", Record: map[string]interface{}{"id": "1"}}}}
	srv := newTestServer(t, gw)

	resp, err := http.Get(srv.URL + "/api/ledger/accounts?username=user1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user1"}, gw.args)

	var results []ledgercc.QueryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Key)

	resp2, err := http.Get(srv.URL + "/api/ledger/accounts")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestTransaction(t *testing.T) {
	gw := &fakeGateway{txStatus: &gateway.TransactionStatus{TxID: "abc", TxValidationCode: "VALID", BlockNumber: 3}}
	srv := newTestServer(t, gw)

	resp, body := get(t, srv, "/api/ledger/transactions/abc?username=user1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user1", "abc"}, gw.args)
	assert.JSONEq(t, `{"tx_id":"abc","tx_validation_code":"VALID","block_number":3}`, string(body))

	gw.err = errors.WithMessage(status.NewFromChaincodeError(status.NotFound, "transaction def does not exist"), "QueryTransaction failed")
	resp, _ = get(t, srv, "/api/ledger/transactions/def?username=user1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, srv, "/api/ledger/transactions/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{}, WithMaxBodySize(64))

	resp, _ := post(t, srv, "/api/ledger/transfer", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv, "/api/enroll/admin", `{"username":"`+strings.Repeat("a", 128)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = post(t, srv, "/api/ledger/unknown", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/ledger/transfer")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	registry := prom.NewRegistry()
	counter := prom.NewCounter(prom.CounterOpts{Name: "test_requests", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	var healthy atomic.Bool
	healthy.Store(true)
	srv := newTestServer(t, &fakeGateway{},
		WithGatherer(registry),
		WithHealthChecker("gateway", HealthCheckerFunc(func(context.Context) error {
			if healthy.Load() {
				return nil
			}
			return errors.New("gateway is closed")
		})),
	)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy.Store(false)
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "test_requests 1")
}
