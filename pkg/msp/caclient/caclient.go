/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package caclient talks to a Fabric-CA compatible certificate authority.
package caclient

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	cfsslapi "github.com/cloudflare/cfssl/api"
	"github.com/cloudflare/cfssl/csr"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

var logger = logging.NewLogger("ledger/msp")

const defaultHTTPTimeout = 10 * time.Second

// EnrollmentResponse holds the credential issued by an enrollment
type EnrollmentResponse struct {
	// Cert is the PEM encoded enrollment certificate
	Cert []byte
	// Key is the PEM encoded (PKCS#8) private key
	Key []byte
}

// Client is a certificate authority client
type Client struct {
	url        *url.URL
	caName     string
	httpClient *http.Client
}

// Option configures the client
type Option func(c *Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a client of the CA at caURL
func New(caURL, caName string, opts ...Option) (*Client, error) {
	u, err := NormalizeURL(caURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid CA URL [%s]", caURL)
	}
	c := &Client{
		url:        u,
		caName:     caName,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Enroll generates a new key pair and asks the CA to certify it
func (c *Client) Enroll(enrollmentID, enrollmentSecret string) (*EnrollmentResponse, error) {
	if enrollmentID == "" {
		return nil, errors.New("enrollmentID is required")
	}
	logger.Debugf("Enrolling %s", enrollmentID)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating key failed")
	}
	csrPEM, err := csr.Generate(key, newCertificateRequest(enrollmentID))
	if err != nil {
		return nil, errors.WithMessage(err, "Failure generating CSR")
	}

	reqNet := &EnrollmentRequestNet{
		SignRequest: SignRequest{Request: string(csrPEM)},
		CAName:      c.caName,
	}
	body, err := json.Marshal(reqNet)
	if err != nil {
		return nil, errors.Wrap(err, "marshal enrollment request failed")
	}

	post, err := c.newPost(EnrollPath, body)
	if err != nil {
		return nil, err
	}
	post.SetBasicAuth(enrollmentID, enrollmentSecret)

	var result EnrollmentResponseNet
	if err := c.sendReq(post, &result); err != nil {
		return nil, err
	}

	cert, err := base64.StdEncoding.DecodeString(result.Cert)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid response format from server")
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "marshal private key failed")
	}
	return &EnrollmentResponse{
		Cert: cert,
		Key:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// Register registers a new identity on behalf of registrar and returns the
// enrollment secret of the new identity
func (c *Client) Register(registrar msp.SigningIdentity, request *msp.RegistrationRequest) (string, error) {
	if request == nil || request.Name == "" {
		return "", errors.New("registration request requires a name")
	}
	logger.Debugf("Registering %s", request.Name)

	reqNet := &RegistrationRequestNet{
		Name:           request.Name,
		Type:           request.Type,
		Secret:         request.Secret,
		MaxEnrollments: request.MaxEnrollments,
		Affiliation:    request.Affiliation,
		CAName:         c.caName,
	}
	body, err := json.Marshal(reqNet)
	if err != nil {
		return "", errors.Wrap(err, "marshal registration request failed")
	}

	token, err := CreateToken(registrar.EnrollmentCertificate(), registrar.Sign, body)
	if err != nil {
		return "", err
	}

	post, err := c.newPost(RegisterPath, body)
	if err != nil {
		return "", err
	}
	post.Header.Set("Authorization", token)

	var result RegistrationResponseNet
	if err := c.sendReq(post, &result); err != nil {
		return "", err
	}
	return result.Secret, nil
}

func newCertificateRequest(id string) *csr.CertificateRequest {
	cr := &csr.CertificateRequest{CN: id}
	// Default requested hosts are local hostname
	hostname, _ := os.Hostname()
	if hostname != "" {
		cr.Hosts = []string{hostname}
	}
	return cr
}

func (c *Client) newPost(endpoint string, reqBody []byte) (*http.Request, error) {
	curl := c.url.String() + endpoint
	req, err := http.NewRequest(http.MethodPost, curl, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed posting to %s", curl)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// sendReq sends a request to the CA and decodes the result of the response
// envelope into result
func (c *Client) sendReq(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s failure of request: %s", req.Method, req.URL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debugf("Failed to close the response body: %s", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "Failed to read response of request: %s", req.URL)
	}

	var body *cfsslapi.Response
	if len(respBody) > 0 {
		body = new(cfsslapi.Response)
		if err := json.Unmarshal(respBody, body); err != nil {
			return errors.Wrapf(err, "Failed to parse response: %s", respBody)
		}
		if len(body.Errors) > 0 {
			var msgs []string
			for _, e := range body.Errors {
				msgs = append(msgs, fmt.Sprintf("Error Code: %d - %s", e.Code, e.Message))
			}
			return errors.Errorf("Response from server: %s", strings.Join(msgs, "; "))
		}
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("Failed with server status code %d for request: %s", resp.StatusCode, req.URL)
	}
	if body == nil {
		return errors.Errorf("Empty response body: %s", req.URL)
	}
	if !body.Success {
		return errors.Errorf("Server returned failure for request: %s", req.URL)
	}
	if result != nil {
		return mapstructure.Decode(body.Result, result)
	}
	return nil
}

// NormalizeURL parses a CA address, defaulting the scheme to http
func NormalizeURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("address is empty")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, errors.Errorf("address [%s] has no host", addr)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}
