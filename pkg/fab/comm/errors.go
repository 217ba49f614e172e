/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	grpcstatus "google.golang.org/grpc/status"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
)

// StatusFromError converts an error returned by a gRPC call into a status.
// gRPC errors are reported in the GRPCTransportStatus group; anything else is
// reported as a connection failure in the given client group.
func StatusFromError(err error, group status.Group, target string) *status.Status {
	if err == nil {
		return nil
	}
	if s, ok := status.FromError(err); ok {
		return s
	}
	if rpcStatus, ok := grpcstatus.FromError(err); ok {
		return status.NewFromGRPCStatus(rpcStatus)
	}
	return status.New(group, status.ConnectionFailed.ToInt32(), err.Error(), []interface{}{target})
}
