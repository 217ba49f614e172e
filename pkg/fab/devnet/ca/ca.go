/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ca is a certificate authority speaking the enrollment and
// registration protocol of Fabric CA. Certificates are issued with the
// cfssl local signer.
package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudflare/cfssl/config"
	"github.com/cloudflare/cfssl/csr"
	"github.com/cloudflare/cfssl/helpers"
	"github.com/cloudflare/cfssl/initca"
	"github.com/cloudflare/cfssl/signer"
	"github.com/cloudflare/cfssl/signer/local"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
)

var logger = logging.NewLogger("ledger/devnet")

// Files written by LoadOrCreate
const (
	CertFileName = "ca-cert.pem"
	KeyFileName  = "ca-key.pem"
)

// Bootstrap identity
const (
	BootstrapID     = "admin"
	BootstrapSecret = "adminpw"
)

// Registration is an identity known to the CA
type Registration struct {
	Name           string
	Secret         string
	Type           string
	Affiliation    string
	MaxEnrollments int
	// Registrar allows the identity to register other identities
	Registrar bool

	enrollments int
}

// CA issues enrollment certificates to registered identities
type CA struct {
	name    string
	cert    *x509.Certificate
	certPEM []byte
	signer  signer.Signer

	mtx      sync.Mutex
	registry map[string]*Registration
}

// New returns a CA signing with keyPEM. The bootstrap identity is
// registered as a registrar.
func New(name string, certPEM, keyPEM []byte) (*CA, error) {
	cert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, errors.Wrap(err, "parsing CA certificate failed")
	}
	priv, err := helpers.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "parsing CA key failed")
	}

	policy := &config.Signing{
		Profiles: map[string]*config.SigningProfile{},
		Default:  config.DefaultConfig(),
	}
	s, err := local.NewSigner(priv, cert, signer.DefaultSigAlgo(priv), policy)
	if err != nil {
		return nil, errors.Wrap(err, "creating signer failed")
	}

	ca := &CA{
		name:     name,
		cert:     cert,
		certPEM:  certPEM,
		signer:   s,
		registry: make(map[string]*Registration),
	}
	ca.registry[BootstrapID] = &Registration{
		Name:      BootstrapID,
		Secret:    BootstrapSecret,
		Type:      "client",
		Registrar: true,
	}
	return ca, nil
}

// LoadOrCreate loads the CA key pair from dir or creates a self-signed one
func LoadOrCreate(dir, name string) (*CA, error) {
	certFile := filepath.Join(dir, CertFileName)
	keyFile := filepath.Join(dir, KeyFileName)

	certPEM, certErr := os.ReadFile(certFile)
	keyPEM, keyErr := os.ReadFile(keyFile)
	if certErr == nil && keyErr == nil {
		logger.Infof("Loaded CA [%s] from %s", name, dir)
		return New(name, certPEM, keyPEM)
	}

	req := &csr.CertificateRequest{
		CN:         name,
		KeyRequest: csr.NewKeyRequest(),
		Names:      []csr.Name{{O: name}},
	}
	certPEM, _, keyPEM, err := initca.New(req)
	if err != nil {
		return nil, errors.Wrap(err, "creating CA key pair failed")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "creating CA directory %s failed", dir)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		return nil, errors.Wrap(err, "writing CA key failed")
	}
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		return nil, errors.Wrap(err, "writing CA certificate failed")
	}
	logger.Infof("Created CA [%s] in %s", name, dir)

	return New(name, certPEM, keyPEM)
}

// Name returns the name of the CA
func (ca *CA) Name() string {
	return ca.name
}

// Certificate returns the CA certificate
func (ca *CA) Certificate() *x509.Certificate {
	return ca.cert
}

// CertificatePEM returns the PEM encoded CA certificate
func (ca *CA) CertificatePEM() []byte {
	return ca.certPEM
}

// Register adds an identity. A missing secret is generated. The secret is
// returned.
func (ca *CA) Register(r Registration) (string, error) {
	if r.Name == "" {
		return "", errors.New("identity name is required")
	}

	ca.mtx.Lock()
	defer ca.mtx.Unlock()

	if _, ok := ca.registry[r.Name]; ok {
		return "", errors.Errorf("identity '%s' is already registered", r.Name)
	}
	if r.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return "", err
		}
		r.Secret = secret
	}
	r.enrollments = 0
	ca.registry[r.Name] = &r
	logger.Debugf("Registered identity %s", r.Name)
	return r.Secret, nil
}

// authenticate checks the credentials of an enrollment and counts it
func (ca *CA) authenticate(id, secret string) error {
	ca.mtx.Lock()
	defer ca.mtx.Unlock()

	r, ok := ca.registry[id]
	if !ok || r.Secret != secret {
		return errors.Errorf("authentication failure for %s", id)
	}
	if r.MaxEnrollments > 0 && r.enrollments >= r.MaxEnrollments {
		return errors.Errorf("the identity %s has already enrolled %d times, it has reached its maximum enrollment of %d", id, r.enrollments, r.MaxEnrollments)
	}
	r.enrollments++
	return nil
}

func (ca *CA) isRegistrar(id string) bool {
	ca.mtx.Lock()
	defer ca.mtx.Unlock()

	r, ok := ca.registry[id]
	return ok && r.Registrar
}

// Sign issues a certificate for a PEM encoded CSR
func (ca *CA) Sign(csrPEM string, hosts []string) ([]byte, error) {
	cert, err := ca.signer.Sign(signer.SignRequest{Request: csrPEM, Hosts: hosts})
	if err != nil {
		return nil, errors.Wrap(err, "signing certificate failed")
	}
	return cert, nil
}

// Issue generates a key pair for id and certifies it without a registration.
// It returns the PEM encoded certificate and PKCS#8 private key.
func (ca *CA) Issue(id string) (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating key failed")
	}
	csrPEM, err := csr.Generate(crypto.Signer(key), &csr.CertificateRequest{CN: id})
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating CSR failed")
	}
	certPEM, err = ca.Sign(string(csrPEM), nil)
	if err != nil {
		return nil, nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal private key failed")
	}
	return certPEM, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// verifyIssued checks that cert was issued by this CA
func (ca *CA) verifyIssued(cert *x509.Certificate) error {
	roots := x509.NewCertPool()
	roots.AddCert(ca.cert)
	_, err := cert.Verify(x509.VerifyOptions{Roots: roots, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny}})
	return err
}

func randomSecret() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating secret failed")
	}
	return hex.EncodeToString(b), nil
}
