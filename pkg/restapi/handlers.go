/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/gateway"
)

const (
	paramUsername = "username"
	paramTxID     = "txid"
)

// Arg is a chaincode argument. Clients may send it as a JSON string or number.
type Arg string

// UnmarshalJSON accepts a string or a number
func (a *Arg) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Arg(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("expected a string or a number, got %s", data)
	}
	*a = Arg(n.String())
	return nil
}

// EnrollAdminRequest is the body of /api/enroll/admin
type EnrollAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// EnrollUserRequest is the body of /api/enroll/user
type EnrollUserRequest struct {
	Username string `json:"username"`
}

// Account is an account of a ledger request
type Account struct {
	ID      Arg `json:"id"`
	Name    Arg `json:"name"`
	Balance Arg `json:"balance"`
}

// AccountRequest is the body of /api/ledger/addaccount and /api/ledger/query
type AccountRequest struct {
	Username string  `json:"username"`
	Account  Account `json:"account"`
}

// Transfer is the transfer of a transfer request
type Transfer struct {
	From    Arg `json:"from"`
	To      Arg `json:"to"`
	Balance Arg `json:"balance"`
}

// TransferRequest is the body of /api/ledger/transfer
type TransferRequest struct {
	Username string   `json:"username"`
	Transfer Transfer `json:"transfer"`
}

// ErrorResponse is the body of failed requests
type ErrorResponse struct {
	Message string `json:"message"`
}

func (s *Server) enrollAdmin(w http.ResponseWriter, r *http.Request) {
	req := &EnrollAdminRequest{}
	if !decode(w, r, req) {
		return
	}
	credential, err := s.gw.EnrollAdmin(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credential)
}

func (s *Server) enrollUser(w http.ResponseWriter, r *http.Request) {
	req := &EnrollUserRequest{}
	if !decode(w, r, req) {
		return
	}
	result, err := s.gw.RegisterUser(req.Username)
	code := http.StatusOK
	if err != nil {
		code = http.StatusInternalServerError
	}
	w.Header().Set(headerContentType, textPlain)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(result)); err != nil {
		logger.Warnf("failed to write response: %s", err)
	}
}

func (s *Server) addAccount(w http.ResponseWriter, r *http.Request) {
	req := &AccountRequest{}
	if !decode(w, r, req) {
		return
	}
	a := req.Account
	outcome, err := s.gw.AddAccount(req.Username, string(a.ID), string(a.Name), string(a.Balance))
	writeOutcome(w, outcome, err)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	req := &TransferRequest{}
	if !decode(w, r, req) {
		return
	}
	t := req.Transfer
	outcome, err := s.gw.Transfer(req.Username, string(t.From), string(t.To), string(t.Balance))
	writeOutcome(w, outcome, err)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	req := &AccountRequest{}
	if !decode(w, r, req) {
		return
	}
	record, err := s.gw.Query(req.Username, string(req.Account.ID))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(headerContentType, applicationJSON)
	if _, err := w.Write(record); err != nil {
		logger.Warnf("failed to write response: %s", err)
	}
}

func (s *Server) accounts(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	results, err := s.gw.QueryAll(username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) transaction(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	txStatus, err := s.gw.Transaction(username, mux.Vars(r)[paramTxID])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txStatus)
}

func requireUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := r.URL.Query().Get(paramUsername)
	if username == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Message: "missing query parameter " + paramUsername})
		return "", false
	}
	return username, true
}

func decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, &ErrorResponse{Message: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeOutcome answers with the outcome of a submitted transaction. Every
// terminal outcome is a result of the request and is answered with 200.
func writeOutcome(w http.ResponseWriter, outcome *gateway.Outcome, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		logger.Errorf("request failed: %s", err)
	} else {
		logger.Debugf("request failed: %s", err)
	}
	writeJSON(w, code, &ErrorResponse{Message: err.Error()})
}

func httpStatus(err error) int {
	s, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case s.Group == status.ChaincodeStatus && s.Code == status.NotFound.ToInt32(),
		s.Group == status.ClientStatus && s.Code == status.NoResults.ToInt32():
		return http.StatusNotFound
	case s.Group == status.ChaincodeStatus && s.Code == status.InvalidArgument.ToInt32(),
		s.Code == status.ArityError.ToInt32() && (s.Group == status.ClientStatus || s.Group == status.ChaincodeStatus):
		return http.StatusBadRequest
	case s.Group == status.IdentityClientStatus:
		return http.StatusForbidden
	case s.Group == status.ClientStatus && s.Code == status.Timeout.ToInt32():
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set(headerContentType, applicationJSON)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("failed to encode response: %s", err)
	}
}
