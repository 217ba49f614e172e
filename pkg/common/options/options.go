/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package options

// Params is the parameter set of a connection, dispatcher or event
// client. An Opt sets a parameter only when params implements its setter,
// so one option list can be shared by several layers.
type Params interface{}

// Opt sets one parameter of Params
type Opt func(opts Params)

// Apply applies opts in order
func Apply(params Params, opts []Opt) {
	for _, opt := range opts {
		opt(params)
	}
}
