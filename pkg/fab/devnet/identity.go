/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"crypto/x509"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

// validateIdentity deserializes an identity and checks that it belongs to
// the replica's MSP
func (n *Node) validateIdentity(raw []byte) (msp.Identity, error) {
	id, err := mspimpl.Deserialize(raw)
	if err != nil {
		return nil, err
	}

	if mspID := id.Identifier().MSPID; mspID != n.config.MSPID {
		return nil, errors.Errorf("identity of MSP [%s] is not a member of [%s]", mspID, n.config.MSPID)
	}

	if n.roots == nil {
		return id, nil
	}

	cert, err := helpers.ParseCertificatePEM(id.EnrollmentCertificate())
	if err != nil {
		return nil, errors.Wrap(err, "parsing identity certificate failed")
	}
	opts := x509.VerifyOptions{
		Roots:     n.roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := cert.Verify(opts); err != nil {
		return nil, errors.Wrapf(err, "certificate of [%s] was not issued by a trusted CA", id.Identifier().ID)
	}
	return id, nil
}

// verifySignature validates the signer's identity and its signature over msg
func (n *Node) verifySignature(rawIdentity, msg, sig []byte) (msp.Identity, error) {
	id, err := n.validateIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}
	if err := id.Verify(msg, sig); err != nil {
		return nil, err
	}
	return id, nil
}
