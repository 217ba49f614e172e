/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package multi is an error type that holds multiple errors. These errors
// typically originate from operations that target multiple nodes, for
// example a proposal sent to two endorsers that both fail.
package multi

import (
	"strings"
)

// Errors is used to represent multiple errors
type Errors []error

// New returns nil when no error is given, the error itself when exactly one
// is given, and Errors otherwise. Nil errors are skipped.
func New(errs ...error) error {
	var collected Errors
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected.ToError()
}

// Append error to Errors. If the first arg is not an Errors object, one will be created
func Append(errs error, err error) error {
	m, ok := errs.(Errors)
	if !ok {
		return New(errs, err)
	}
	if err == nil {
		return errs
	}
	return append(m, err)
}

// ToError converts Errors to the error interface
// returns nil if no errors are present, a single error object if only one is present
func (errs Errors) ToError() error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errs
	}
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (errs Errors) Unwrap() []error {
	return errs
}

// Error implements the error interface to return a string representation of Errors
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("Multiple errors occurred:")
	for _, err := range errs {
		sb.WriteString(" - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}
