/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package policy evaluates endorsement policy expressions against the
// proposal responses of a transaction.
//
// An expression is a boolean govaluate expression over the parameters
//
//	responses   number of proposal responses
//	endorsed    number of responses carrying an endorsement
//	status      response status of the first proposal response
//	succeeded   number of responses with status 200
//
// and the functions endorsedBy(mspID), which reports whether an identity of
// the given MSP endorsed, and allSucceeded().
package policy

import (
	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

var logger = logging.NewLogger("ledger/client")

// Default requires a successful response from at least one endorser
const Default = "responses >= 1 && status == 200"

// Policy is a parsed endorsement policy
type Policy struct {
	expression string
}

type evaluation struct {
	responses []*fab.TransactionProposalResponse
}

// New parses expression. An empty expression selects the default policy.
func New(expression string) (*Policy, error) {
	if expression == "" {
		expression = Default
	}
	// parse once against empty responses so syntax errors surface here
	if _, err := compile(expression, &evaluation{}); err != nil {
		return nil, errors.WithMessage(err, "invalid endorsement policy")
	}
	return &Policy{expression: expression}, nil
}

// MustNew is like New but panics on an invalid expression
func MustNew(expression string) *Policy {
	p, err := New(expression)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression of the policy
func (p *Policy) String() string {
	return p.expression
}

// Evaluate reports whether the responses satisfy the policy
func (p *Policy) Evaluate(responses []*fab.TransactionProposalResponse) (bool, error) {
	e := &evaluation{responses: responses}
	exp, err := compile(p.expression, e)
	if err != nil {
		return false, err
	}

	result, err := exp.Evaluate(e.parameters())
	if err != nil {
		return false, errors.Wrapf(err, "evaluating endorsement policy [%s] failed", p.expression)
	}
	satisfied, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("endorsement policy [%s] does not evaluate to a boolean", p.expression)
	}
	logger.Debugf("Endorsement policy [%s] over %d responses: %t", p.expression, len(responses), satisfied)
	return satisfied, nil
}

// compile binds the policy functions to the responses of one evaluation
func compile(expression string, e *evaluation) (*govaluate.EvaluableExpression, error) {
	return govaluate.NewEvaluableExpressionWithFunctions(expression, map[string]govaluate.ExpressionFunction{
		"endorsedBy":   e.endorsedBy,
		"allSucceeded": e.allSucceeded,
	})
}

func (e *evaluation) parameters() map[string]interface{} {
	var endorsed, succeeded float64
	for _, r := range e.responses {
		if r.ProposalResponse.GetEndorsement() != nil {
			endorsed++
		}
		if r.ProposalResponse.GetResponse().GetStatus() == int32(cb.Status_SUCCESS) {
			succeeded++
		}
	}

	var first float64
	if len(e.responses) > 0 {
		first = float64(e.responses[0].ProposalResponse.GetResponse().GetStatus())
	}

	return map[string]interface{}{
		"responses": float64(len(e.responses)),
		"endorsed":  endorsed,
		"status":    first,
		"succeeded": succeeded,
	}
}

func (e *evaluation) endorsedBy(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("endorsedBy expects one MSP ID")
	}
	mspID, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("endorsedBy expects a string, got %v", args[0])
	}

	for _, r := range e.responses {
		endorsement := r.ProposalResponse.GetEndorsement()
		if endorsement == nil {
			continue
		}
		endorser, err := mspimpl.Deserialize(endorsement.Endorser)
		if err != nil {
			logger.Debugf("Skipping endorsement of %s: %s", r.Endorser, err)
			continue
		}
		if endorser.Identifier().MSPID == mspID {
			return true, nil
		}
	}
	return false, nil
}

func (e *evaluation) allSucceeded(args ...interface{}) (interface{}, error) {
	if len(args) != 0 {
		return nil, errors.New("allSucceeded expects no arguments")
	}
	if len(e.responses) == 0 {
		return false, nil
	}
	for _, r := range e.responses {
		if r.ProposalResponse.GetResponse().GetStatus() != int32(cb.Status_SUCCESS) {
			return false, nil
		}
	}
	return true, nil
}
