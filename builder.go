/*
 * Copyright 2024 CeresDB Project Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ceresdb

import (
	"math"
	"net"
	"strconv"

	"github.com/ceresdb/ceresdb-client-go/internal/wire"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Version is reported in the user agent of every client.
const Version = "0.1.0"

// Builder assembles a Client.
//
//	client, err := ceresdb.NewBuilder("127.0.0.1:8831").
//		DefaultDatabase("public").
//		Build()
type Builder struct {
	endpoint  string
	config    RpcConfig
	defaultDB string
	logger    logrus.FieldLogger
	telemetry Telemetry
	dialOpts  []grpc.DialOption

	built bool
}

// NewBuilder starts a builder for a client of the server at endpoint, given
// as host:port.
func NewBuilder(endpoint string) *Builder {
	return &Builder{
		endpoint: endpoint,
		config:   DefaultRpcConfig(),
	}
}

// RpcConfig sets the connection settings. Zero fields fall back to
// DefaultRpcConfig.
func (b *Builder) RpcConfig(conf RpcConfig) *Builder {
	b.config = conf
	return b
}

// DefaultDatabase sets the database used by calls whose RpcContext names
// none.
func (b *Builder) DefaultDatabase(db string) *Builder {
	b.defaultDB = db
	return b
}

// Logger sets the client logger. The package logger is used otherwise.
func (b *Builder) Logger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// Telemetry sets the OpenTelemetry providers of the client.
func (b *Builder) Telemetry(t Telemetry) *Builder {
	b.telemetry = t
	return b
}

// DialOptions appends raw gRPC dial options, e.g. transport credentials.
// They are applied after the options derived from RpcConfig.
func (b *Builder) DialOptions(opts ...grpc.DialOption) *Builder {
	b.dialOpts = append(b.dialOpts, opts...)
	return b
}

// Build validates the endpoint and configuration and returns the client.
//
// The channel is connected lazily: Build does not dial, and an unreachable
// server surfaces as a connection error on the first call. A Builder builds
// one client only.
func (b *Builder) Build() (*Client, error) {
	const op = "build"
	if b.built {
		return nil, invalidStateError(op, "builder already built")
	}
	b.built = true

	if err := validateEndpoint(b.endpoint); err != nil {
		return nil, err
	}
	conf := b.config.withDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(b.endpoint, append(dialOptions(conf), b.dialOpts...)...)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: op, Message: "create channel to " + b.endpoint, Cause: err}
	}

	log := b.logger
	if log == nil {
		log = GetLogger()
	}
	log = log.WithField("endpoint", b.endpoint)
	log.WithField("thread_num", conf.ThreadNum).Debug("ceresdb client built")

	return &Client{
		conn:      conn,
		api:       &grpcStorage{conn: conn},
		config:    conf,
		endpoint:  b.endpoint,
		defaultDB: b.defaultDB,
		sem:       semaphore.NewWeighted(int64(conf.ThreadNum)),
		log:       log,
		tel:       newInstruments(b.telemetry),
	}, nil
}

func validateEndpoint(endpoint string) error {
	const op = "build"
	if endpoint == "" {
		return &Error{Kind: KindConnection, Op: op, Message: "endpoint is empty"}
	}
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return &Error{Kind: KindConnection, Op: op, Message: "malformed endpoint " + endpoint, Cause: err}
	}
	if host == "" {
		return &Error{Kind: KindConnection, Op: op, Message: "endpoint has no host: " + endpoint}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > math.MaxUint16 {
		return &Error{Kind: KindConnection, Op: op, Message: "endpoint has invalid port: " + endpoint}
	}
	return nil
}

func msgLen(n int) int {
	if n == Unlimited {
		return math.MaxInt32
	}
	return n
}

func dialOptions(conf RpcConfig) []grpc.DialOption {
	callOpts := []grpc.CallOption{
		grpc.ForceCodec(wire.Codec{}),
		grpc.MaxCallSendMsgSize(msgLen(conf.MaxSendMsgLen)),
		grpc.MaxCallRecvMsgSize(msgLen(conf.MaxRecvMsgLen)),
	}
	if conf.Compression != wire.CompressionNone {
		callOpts = append(callOpts, grpc.UseCompressor(conf.Compression))
	}

	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(callOpts...),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                conf.KeepAliveInterval,
			Timeout:             conf.KeepAliveTimeout,
			PermitWithoutStream: *conf.KeepAliveWhileIdle,
		}),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: conf.ConnectTimeout,
		}),
		grpc.WithUserAgent("ceresdb-client-go/" + Version),
	}
}
