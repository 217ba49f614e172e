/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package caclient

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cfsslapi "github.com/cloudflare/cfssl/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

// testCA signs enrollment requests with a throwaway key
type testCA struct {
	key  *ecdsa.PrivateKey
	cert *x509.Certificate
}

func newTestCA(t *testing.T) *testCA {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "ca.example.com"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testCA{key: key, cert: cert}
}

func (ca *testCA) sign(t *testing.T, csrPEM string) []byte {
	block, _ := pem.Decode([]byte(csrPEM))
	require.NotNil(t, block)
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      csr.Subject,
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, csr.PublicKey, ca.key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func writeResponse(w http.ResponseWriter, code int, resp cfsslapi.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp) // nolint: errcheck
}

// signingIdentity is a minimal msp.SigningIdentity for the registrar
type signingIdentity struct {
	msp.SigningIdentity
	cert []byte
	key  *ecdsa.PrivateKey
}

func (s *signingIdentity) EnrollmentCertificate() []byte { return s.cert }

func (s *signingIdentity) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return ecdsa.SignASN1(rand.Reader, s.key, digest[:])
}

func TestEnroll(t *testing.T) {
	ca := newTestCA(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, EnrollPath, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "adminpw" {
			writeResponse(w, http.StatusUnauthorized, cfsslapi.NewErrorResponse("Authentication failure", 20))
			return
		}
		req := &EnrollmentRequestNet{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(req))
		assert.Equal(t, "ca.example.com", req.CAName)

		cert := ca.sign(t, req.Request)
		writeResponse(w, http.StatusCreated, cfsslapi.NewSuccessResponse(&EnrollmentResponseNet{
			Cert:       base64.StdEncoding.EncodeToString(cert),
			ServerInfo: ServerInfoNet{CAName: "ca.example.com"},
		}))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "ca.example.com")
	require.NoError(t, err)

	resp, err := client.Enroll("admin", "adminpw")
	require.NoError(t, err)

	block, _ := pem.Decode(resp.Cert)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, "admin", cert.Subject.CommonName)

	keyBlock, _ := pem.Decode(resp.Key)
	require.NotNil(t, keyBlock)
	key, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	require.NoError(t, err)
	assert.True(t, key.(*ecdsa.PrivateKey).PublicKey.Equal(cert.PublicKey))

	_, err = client.Enroll("admin", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication failure")

	_, err = client.Enroll("", "x")
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	ca := newTestCA(t)
	registrarKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "admin"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &registrarKey.PublicKey, ca.key)
	require.NoError(t, err)
	registrar := &signingIdentity{
		cert: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		key:  registrarKey,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, RegisterPath, r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		caller, err := VerifyToken(r.Header.Get("Authorization"), body)
		if err != nil {
			writeResponse(w, http.StatusUnauthorized, cfsslapi.NewErrorResponse(err.Error(), 20))
			return
		}
		assert.Equal(t, "admin", caller.Subject.CommonName)

		req := &RegistrationRequestNet{}
		require.NoError(t, json.Unmarshal(body, req))
		assert.Equal(t, "user1", req.Name)
		assert.Equal(t, "org1.department1", req.Affiliation)

		writeResponse(w, http.StatusCreated, cfsslapi.NewSuccessResponse(&RegistrationResponseNet{Secret: "s3cret"}))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "")
	require.NoError(t, err)

	secret, err := client.Register(registrar, &msp.RegistrationRequest{Name: "user1", Affiliation: "org1.department1"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	_, err = client.Register(registrar, &msp.RegistrationRequest{})
	assert.Error(t, err)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(4),
		Subject:      pkix.Name{CommonName: "admin"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	signer := &signingIdentity{cert: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), key: key}

	token, err := CreateToken(signer.cert, signer.Sign, []byte(`{"id":"user1"}`))
	require.NoError(t, err)

	_, err = VerifyToken(token, []byte(`{"id":"user1"}`))
	assert.NoError(t, err)
	_, err = VerifyToken(token, []byte(`{"id":"user2"}`))
	assert.Error(t, err)
	_, err = VerifyToken("nodot", nil)
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	u, err := NormalizeURL("localhost:7054")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7054", u.String())

	u, err = NormalizeURL(" https://ca.example.com:7054/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://ca.example.com:7054", u.String())

	_, err = NormalizeURL("")
	assert.Error(t, err)
}
