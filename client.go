package ceresdb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ceresdb/ceresdb-client-go/internal/wire"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client issues queries and writes over one gRPC channel. It is safe for
// concurrent use; calls share no mutable state beyond the channel and the
// ThreadNum bound on calls in flight.
type Client struct {
	conn      *grpc.ClientConn
	api       storageAPI
	config    RpcConfig
	endpoint  string
	defaultDB string
	sem       *semaphore.Weighted
	log       logrus.FieldLogger
	tel       *instruments

	closed atomic.Bool
}

// storageAPI is the storage service as seen by the client.
type storageAPI interface {
	writeAPI
	queryAPI
}

// grpcStorage invokes the storage service over a gRPC channel.
type grpcStorage struct {
	conn grpc.ClientConnInterface
}

var _ storageAPI = (*grpcStorage)(nil)

// Config returns the effective connection settings.
func (c *Client) Config() RpcConfig {
	return c.config
}

// Endpoint returns the server address.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the channel. Calls issued afterwards fail with a
// connection error.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) database(op string, rpcCtx RpcContext) (string, error) {
	if rpcCtx.Database != "" {
		return rpcCtx.Database, nil
	}
	if c.defaultDB != "" {
		return c.defaultDB, nil
	}
	return "", validationError(op, "database is not set in the call context nor as client default")
}

// call runs fn under the effective timeout, one ThreadNum slot, a request
// id and a client span. Errors are classified, never retried.
func (c *Client) call(ctx context.Context, op string, db string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if c.closed.Load() {
		return &Error{Kind: KindConnection, Op: op, Message: "client is closed"}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"op":         op,
		"database":   db,
		"request_id": requestID,
	})

	ctx = metadata.AppendToOutgoingContext(ctx, wire.RequestIDKey, requestID)
	ctx, end := c.tel.start(ctx, op)

	err := c.sem.Acquire(ctx, 1)
	if err == nil {
		begin := time.Now()
		err = fn(ctx)
		c.sem.Release(1)
		log = log.WithField("elapsed", time.Since(begin))
	}
	err = rpcError(ctx, op, err)
	end(err)

	if err != nil {
		log.WithError(err).Debug("ceresdb call failed")
	} else {
		log.Debug("ceresdb call finished")
	}
	return err
}
