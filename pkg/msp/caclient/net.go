/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package caclient

// API paths of the certificate authority
const (
	EnrollPath   = "/api/v1/enroll"
	RegisterPath = "/api/v1/register"
)

// SignRequest carries the PEM encoded certificate signing request
type SignRequest struct {
	Hosts   []string `json:"hosts,omitempty"`
	Request string   `json:"certificate_request"`
	Profile string   `json:"profile,omitempty"`
	Label   string   `json:"label,omitempty"`
}

// EnrollmentRequestNet is the body of an enrollment request
type EnrollmentRequestNet struct {
	SignRequest
	CAName string `json:"caname,omitempty"`
}

// RegistrationRequestNet is the body of a registration request
type RegistrationRequestNet struct {
	Name           string `json:"id"`
	Type           string `json:"type,omitempty"`
	Secret         string `json:"secret,omitempty"`
	MaxEnrollments int    `json:"max_enrollments,omitempty"`
	Affiliation    string `json:"affiliation"`
	CAName         string `json:"caname,omitempty"`
}

// EnrollmentResponseNet is the result of a successful enrollment. Cert is
// the base64 encoded PEM certificate.
type EnrollmentResponseNet struct {
	Cert       string        `json:"Cert" mapstructure:"Cert"`
	ServerInfo ServerInfoNet `json:"ServerInfo" mapstructure:"ServerInfo"`
}

// ServerInfoNet describes the CA that issued a certificate. CAChain is the
// base64 encoded PEM chain.
type ServerInfoNet struct {
	CAName  string `json:"CAName" mapstructure:"CAName"`
	CAChain string `json:"CAChain" mapstructure:"CAChain"`
}

// RegistrationResponseNet is the result of a successful registration
type RegistrationResponseNet struct {
	Secret string `json:"secret" mapstructure:"secret"`
}
