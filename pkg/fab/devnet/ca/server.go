/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cfsslapi "github.com/cloudflare/cfssl/api"
	"github.com/cloudflare/cfssl/helpers"
	"github.com/gorilla/mux"

	"github.com/sharad-develop/fabric-node-ledger/pkg/msp/caclient"
)

// CAInfoPath returns the CA name and chain
const CAInfoPath = "/api/v1/cainfo"

const maxRequestBytes = 1 << 20

// Error codes of the response envelope
const (
	errInvalidRequest = 1
	errAuthentication = 20
	errAuthorization  = 21
	errRegistration   = 74
	errSigning        = 30
)

// Handler returns the HTTP API of the CA
func (ca *CA) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(caclient.EnrollPath, ca.handleEnroll).Methods(http.MethodPost)
	r.HandleFunc(caclient.RegisterPath, ca.handleRegister).Methods(http.MethodPost)
	r.HandleFunc(CAInfoPath, ca.handleCAInfo).Methods(http.MethodGet, http.MethodPost)
	return r
}

func (ca *CA) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok {
		sendError(w, http.StatusUnauthorized, errAuthentication, "basic authorization is required")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "reading request failed: %s", err)
		return
	}
	req := &caclient.EnrollmentRequestNet{}
	if err := json.Unmarshal(body, req); err != nil {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "invalid enrollment request: %s", err)
		return
	}
	if req.CAName != "" && req.CAName != ca.name {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "CA '%s' does not exist", req.CAName)
		return
	}

	csr, err := helpers.ParseCSRPEM([]byte(req.Request))
	if err != nil {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "invalid certificate request: %s", err)
		return
	}
	if csr.Subject.CommonName != id {
		sendError(w, http.StatusForbidden, errAuthorization, "the CSR subject common name must equal the enrollment ID")
		return
	}

	if err := ca.authenticate(id, secret); err != nil {
		logger.Debugf("Enrollment of %s rejected: %s", id, err)
		sendError(w, http.StatusUnauthorized, errAuthentication, "%s", err)
		return
	}

	cert, err := ca.Sign(req.Request, req.Hosts)
	if err != nil {
		sendError(w, http.StatusInternalServerError, errSigning, "%s", err)
		return
	}
	logger.Debugf("Enrolled %s", id)

	sendResponse(w, &caclient.EnrollmentResponseNet{
		Cert:       base64.StdEncoding.EncodeToString(cert),
		ServerInfo: ca.serverInfo(),
	})
}

func (ca *CA) handleRegister(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		sendError(w, http.StatusUnauthorized, errAuthentication, "authorization token is required")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "reading request failed: %s", err)
		return
	}

	cert, err := caclient.VerifyToken(token, body)
	if err != nil {
		sendError(w, http.StatusUnauthorized, errAuthentication, "%s", err)
		return
	}
	if err := ca.verifyIssued(cert); err != nil {
		sendError(w, http.StatusUnauthorized, errAuthentication, "certificate was not issued by this CA: %s", err)
		return
	}
	registrar := cert.Subject.CommonName
	if !ca.isRegistrar(registrar) {
		sendError(w, http.StatusForbidden, errAuthorization, "'%s' is not a registrar", registrar)
		return
	}

	req := &caclient.RegistrationRequestNet{}
	if err := json.Unmarshal(body, req); err != nil {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "invalid registration request: %s", err)
		return
	}
	if req.CAName != "" && req.CAName != ca.name {
		sendError(w, http.StatusBadRequest, errInvalidRequest, "CA '%s' does not exist", req.CAName)
		return
	}

	typ := req.Type
	if typ == "" {
		typ = "client"
	}
	secret, err := ca.Register(Registration{
		Name:           req.Name,
		Secret:         req.Secret,
		Type:           typ,
		Affiliation:    req.Affiliation,
		MaxEnrollments: req.MaxEnrollments,
	})
	if err != nil {
		sendError(w, http.StatusBadRequest, errRegistration, "registration of '%s' failed: %s", req.Name, err)
		return
	}
	logger.Debugf("%s registered %s", registrar, req.Name)

	sendResponse(w, &caclient.RegistrationResponseNet{Secret: secret})
}

func (ca *CA) handleCAInfo(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, ca.serverInfo())
}

func (ca *CA) serverInfo() caclient.ServerInfoNet {
	return caclient.ServerInfoNet{
		CAName:  ca.name,
		CAChain: base64.StdEncoding.EncodeToString(ca.certPEM),
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
}

func sendResponse(w http.ResponseWriter, result interface{}) {
	if err := cfsslapi.SendResponse(w, result); err != nil {
		logger.Warnf("Failed to send response: %s", err)
	}
}

func sendError(w http.ResponseWriter, scode, code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Debugf("Sending error %d: %s", scode, msg)

	jsonMessage, err := json.Marshal(cfsslapi.NewErrorResponse(msg, code))
	if err != nil {
		http.Error(w, msg, scode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(scode)
	if _, err := w.Write(jsonMessage); err != nil {
		logger.Debugf("Failed to write error response: %s", err)
	}
}
