/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledgercc

import (
	"fmt"
	"strings"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
)

// codes the chaincode reports in its error messages
var codes = []status.Code{
	status.ArityError,
	status.NotFound,
	status.InsufficientBalance,
	status.InvalidArgument,
	status.UnknownFunction,
}

// StatusError is a chaincode failure of a known kind. Its message travels
// in the response as "<CODE>: <text>" so that clients can recover the kind.
type StatusError struct {
	Code status.Code
	Msg  string
}

func (e *StatusError) Error() string {
	return e.Code.String() + ": " + e.Msg
}

// NewError returns a StatusError of the given kind
func NewError(code status.Code, format string, args ...interface{}) *StatusError {
	return &StatusError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ParseError recovers the kind and text of a chaincode response message.
// ok is false if the message does not carry a known kind.
func ParseError(message string) (code status.Code, text string, ok bool) {
	for _, c := range codes {
		prefix := c.String() + ": "
		if strings.HasPrefix(message, prefix) {
			return c, strings.TrimPrefix(message, prefix), true
		}
	}
	return status.Unknown, message, false
}
