/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package deliverclient connects to the deliver service of a node and
// publishes filtered block and transaction status events.
package deliverclient

import (
	reqContext "context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/comm"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/deliverclient/seek"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/service"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/service/dispatcher"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

var logger = logging.NewLogger("ledger/fab")

// Client connects to a node and receives channel events, such as filtered block and transaction status events.
type Client struct {
	*service.Service
	sync.RWMutex
	params
	channelID string
	conn      *grpc.ClientConn
	deliverer pb.DeliverClient
	cancel    reqContext.CancelFunc
	done      chan struct{}
	stopped   int32
}

// New returns a new deliver event client. The client connects in the
// background and reconnects with exponential backoff until Close is called.
func New(config fab.EndpointConfig, opts ...options.Opt) (*Client, error) {
	chConfig := config.ChannelConfig()
	if chConfig == nil || chConfig.ID == "" {
		return nil, errors.New("expecting channel ID")
	}

	params := defaultParams()
	if esConfig := config.EventServiceConfig(); esConfig != nil {
		params.url = esConfig.URL
		params.SetReconnectBackoff(esConfig.ReconnectInitialBackoff, esConfig.ReconnectMaxBackoff)
		if esConfig.ConsumerTimeout != 0 {
			opts = append([]options.Opt{dispatcher.WithEventConsumerTimeout(esConfig.ConsumerTimeout)}, opts...)
		}
	}
	options.Apply(params, opts)

	if params.url == "" {
		return nil, errors.New("event service URL is required")
	}

	dialOpts := append([]options.Opt{comm.WithConnectTimeout(config.Timeout(fab.EventReg))}, opts...)
	conn, err := comm.Dial(reqContext.Background(), params.url, dialOpts...)
	if err != nil {
		return nil, err
	}

	client := &Client{
		Service:   service.New(dispatcher.New(opts...), opts...),
		params:    *params,
		channelID: chConfig.ID,
		conn:      conn,
		deliverer: pb.NewDeliverClient(conn),
		done:      make(chan struct{}),
	}

	if err := client.Start(); err != nil {
		conn.Close() // nolint: errcheck
		return nil, err
	}

	ctx, cancel := reqContext.WithCancel(reqContext.Background())
	client.cancel = cancel
	go client.run(ctx)

	return client, nil
}

// URL returns the URL of the deliver service
func (c *Client) URL() string {
	return c.url
}

// Close disconnects from the deliver service and closes all registration channels.
func (c *Client) Close() {
	if !atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		logger.Debugf("Client already closed")
		return
	}

	c.cancel()
	<-c.done

	c.Stop()

	if err := c.conn.Close(); err != nil {
		logger.Debugf("unable to close connection to %s: %s", c.url, err)
	}
}

func (c *Client) run(ctx reqContext.Context) {
	defer close(c.done)

	backoff := c.reconnectInitialBackoff
	for {
		connected, err := c.receive(ctx)
		if ctx.Err() != nil {
			return
		}

		if connected {
			backoff = c.reconnectInitialBackoff
		}

		logger.Warnf("Deliver stream to %s broken: %s. Reconnecting in %s", c.url, err, backoff)
		c.notifyConnection(false, err)
		c.setSeekFromLastBlockReceived()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.reconnectMaxBackoff {
			backoff = c.reconnectMaxBackoff
		}
	}
}

// receive opens a deliver stream and submits each block to the dispatcher
// until the stream breaks. It reports whether the stream was established.
func (c *Client) receive(ctx reqContext.Context) (bool, error) {
	envelope, err := c.seekEnvelope()
	if err != nil {
		return false, err
	}

	stream, err := c.deliverer.DeliverFiltered(ctx)
	if err != nil {
		return false, errors.WithMessage(err, "unable to open deliver stream")
	}
	if err := stream.Send(envelope); err != nil {
		return false, errors.WithMessage(err, "unable to send seek request")
	}
	if err := stream.CloseSend(); err != nil {
		logger.Debugf("unable to close deliver send direction: %s", err)
	}

	logger.Debugf("Connected to deliver service at %s", c.url)
	c.notifyConnection(true, nil)

	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return true, errors.New("deliver stream closed by server")
		}
		if err != nil {
			return true, err
		}

		switch evt := resp.Type.(type) {
		case *pb.DeliverResponse_FilteredBlock:
			if err := c.Submit(dispatcher.NewFilteredBlockEvent(evt.FilteredBlock, c.url)); err != nil {
				return true, err
			}
		case *pb.DeliverResponse_Status:
			if evt.Status != cb.Status_SUCCESS {
				return true, errors.Errorf("deliver service returned status [%s]", evt.Status)
			}
		default:
			logger.Warnf("Unsupported deliver response type: %T", resp.Type)
		}
	}
}

func (c *Client) notifyConnection(connected bool, err error) {
	if err := c.Submit(dispatcher.NewConnectionEvent(connected, err)); err != nil {
		logger.Debugf("unable to submit connection event: %s", err)
	}
}

func (c *Client) setSeekFromLastBlockReceived() {
	c.Lock()
	defer c.Unlock()

	// Make sure that, when we reconnect, we receive all of the events that we've missed
	lastBlockNum := c.Dispatcher().LastBlockNum()
	if lastBlockNum < math.MaxUint64 {
		c.seekType = seek.FromBlock
		c.fromBlock = lastBlockNum + 1
	} else if c.seekType != seek.FromBlock && c.seekType != seek.Oldest {
		// We haven't received any blocks yet. Just ask for the newest
		c.seekType = seek.Newest
	}
}

// seekEnvelope wraps the seek position into a DELIVER_SEEK_INFO envelope,
// signed when the client has a signing identity
func (c *Client) seekEnvelope() (*cb.Envelope, error) {
	c.RLock()
	seekInfo, err := seek.Info(c.seekType, c.fromBlock)
	c.RUnlock()
	if err != nil {
		return nil, err
	}

	var signer protoutil.Signer
	if c.signer != nil {
		signer = c.signer
	}
	return protoutil.CreateSignedEnvelope(cb.HeaderType_DELIVER_SEEK_INFO, c.channelID, signer, seekInfo)
}
